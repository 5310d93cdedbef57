package budgetgrid

import (
	"encoding/json"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/tiendc/go-deepcopy"
	"go.uber.org/zap"
)

// contextKey captures an action context at submit time so that batches can
// compare contexts without holding on to values the caller may still mutate.
// The hash only rules out unequal contexts quickly; equality is always
// decided by reflect.DeepEqual on the snapshots.
type contextKey struct {
	typ    reflect.Type
	hash   uint64
	hashed bool
	value  any
}

func newContextKey(ctx any) contextKey {
	if ctx == nil {
		return contextKey{}
	}
	k := contextKey{typ: reflect.TypeOf(ctx), value: snapshotContext(ctx)}
	if data, err := json.Marshal(ctx); err == nil {
		d := xxhash.New()
		d.WriteString(k.typ.String())
		d.Write(data)
		k.hash, k.hashed = d.Sum64(), true
	}
	return k
}

// equal reports whether two keys describe deep-equal contexts.
func (k contextKey) equal(other contextKey) bool {
	if k.typ != other.typ {
		return false
	}
	if k.hashed && other.hashed && k.hash != other.hash {
		return false
	}
	return reflect.DeepEqual(k.value, other.value)
}

// snapshotContext deep copies ctx, unexported fields included. Values the
// copier cannot handle (channels, funcs) are kept as they are and compare by
// identity.
func snapshotContext(ctx any) any {
	rv := reflect.ValueOf(ctx)
	src := reflect.New(rv.Type())
	src.Elem().Set(rv)
	dst := reflect.New(rv.Type())
	if err := deepcopy.Copy(dst.Interface(), src.Interface()); err != nil {
		Logger().Debug("keeping batch context uncopied", zap.Stringer("type", rv.Type()), zap.Error(err))
		return ctx
	}
	return dst.Elem().Interface()
}
