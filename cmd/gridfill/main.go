// Command gridfill imports a table from a workbook, appends rows generated by
// pattern inference, orders the result and writes it to a new workbook.
//
//	gridfill -columns columns.yaml -in table.xlsx -out out.xlsx -rows 3
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/javajack/budgetgrid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gridfill", flag.ContinueOnError)
	configPath := fs.String("config", "budgetgrid.toml", "TOML config file")
	columnsPath := fs.String("columns", "columns.yaml", "YAML column definitions")
	in := fs.String("in", "", "Workbook to import")
	out := fs.String("out", "output.xlsx", "Workbook to write")
	sheet := fs.String("sheet", "", "Sheet to import (default: first sheet)")
	count := fs.Int("rows", 1, "Number of rows to generate")
	describe := fs.Bool("describe", false, "Print the resulting row tree")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("-in is required")
	}

	cfg, err := budgetgrid.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	budgetgrid.SetLogger(logger)

	columns, err := loadColumns(*columnsPath)
	if err != nil {
		return err
	}
	for _, issue := range budgetgrid.ValidateColumns(columns) {
		if issue.Severity == budgetgrid.SeverityError {
			return fmt.Errorf("invalid columns: %s", issue)
		}
		logger.Warn("column issue", zap.Stringer("issue", issue))
	}

	rows, err := importRows(*in, *sheet, columns)
	if err != nil {
		return err
	}
	ordered := budgetgrid.OrderTableData(rows)

	generated := budgetgrid.GenerateNewRowData(budgetgrid.Rows(ordered), len(ordered), columns, *count)
	if err := submitRows(cfg, logger, generated); err != nil {
		return err
	}
	next := lastPlaceholder(ordered)
	for _, data := range generated {
		next++
		ordered = append(ordered, budgetgrid.Row{ID: budgetgrid.PlaceholderID(next), Data: data})
	}
	ordered = budgetgrid.OrderTableData(ordered)

	if *describe {
		fmt.Print(budgetgrid.DescribeRows(ordered, columns))
	}
	if err := exportRows(*out, ordered, columns); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%d rows, %d generated)\n", *out, len(ordered), len(generated))
	return nil
}

// lastPlaceholder returns the highest placeholder number in rows, or 0.
func lastPlaceholder(rows []budgetgrid.Row) int {
	n := 0
	for _, r := range rows {
		if r.IsPlaceholder() && r.ID.N > n {
			n = r.ID.N
		}
	}
	return n
}

func loadColumns(path string) (budgetgrid.Columns, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open columns: %w", err)
	}
	defer f.Close()
	return budgetgrid.LoadColumns(f)
}

func importRows(path, sheet string, columns budgetgrid.Columns) ([]budgetgrid.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return budgetgrid.ImportWorkbook(f, sheet, columns)
}

func exportRows(path string, rows []budgetgrid.Row, columns budgetgrid.Columns) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := budgetgrid.ExportWorkbook(f, budgetgrid.DefaultSheet, rows, columns); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// submitRows pushes the generated rows through an event batcher whose handler
// only logs, the way a grid would hand them to its change handler.
func submitRows(cfg *budgetgrid.Config, logger *zap.Logger, rows []budgetgrid.RowData) error {
	if len(rows) == 0 {
		return nil
	}
	metrics, err := budgetgrid.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	handler := budgetgrid.HandlerFunc(func(_ context.Context, d budgetgrid.Dispatch) error {
		logger.Info("change event",
			zap.String("dispatch", d.ID),
			zap.String("type", string(d.Type())),
			zap.Int("actions", len(d.Actions)),
		)
		return nil
	})
	opts := append(cfg.BatcherOptions(),
		budgetgrid.WithLogger(logger),
		budgetgrid.WithMetrics(metrics),
		budgetgrid.WithHistory(cfg.NewHistory()),
	)
	b := budgetgrid.NewEventBatcher(handler, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	for _, data := range rows {
		if err := b.SubmitEvent(budgetgrid.NewRowAddEvent(data), "gridfill"); err != nil {
			return err
		}
	}
	if err := b.Close(); err != nil {
		return err
	}
	// Close may win the race against Run, in which case it flushed the queue itself.
	if err := <-done; err != nil && !errors.Is(err, budgetgrid.ErrBatcherClosed) {
		return err
	}
	return nil
}
