package objmap

import (
	"errors"
	"reflect"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ToSlice maps every element of srcs into a []T of the same length. Batches
// at or above the mapper's parallel threshold fan out across goroutines;
// result order always matches input order. Without FailFast, failing
// elements are reported joined while successful ones are still returned.
// The default direction matches To: EntityToResponse.
func ToSlice[T any, S any](m *Mapper, srcs []S, opts ...MapOption) ([]T, error) {
	if srcs == nil {
		return nil, nil
	}
	o := m.callOptions(EntityToResponse, opts)
	out := make([]T, len(srcs))

	mapOne := func(i int) error {
		v, err := To[T](m, srcs[i], WithDirection(o.dir))
		if err != nil {
			return &MappingError{
				Source: reflect.TypeOf(srcs[i]),
				Target: reflect.TypeOf(v),
				Index:  i,
				Err:    err,
			}
		}
		out[i] = v
		return nil
	}

	if len(srcs) < m.parallelThreshold {
		var errs []error
		for i := range srcs {
			if err := mapOne(i); err != nil {
				if o.failFast {
					return out, err
				}
				errs = append(errs, err)
			}
		}
		return out, errors.Join(errs...)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	errs := make([]error, len(srcs))
	for i := range srcs {
		i := i
		g.Go(func() error {
			err := mapOne(i)
			if o.failFast {
				return err
			}
			errs[i] = err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, errors.Join(errs...)
}
