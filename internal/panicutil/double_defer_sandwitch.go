package panicutil

import (
	"github.com/sourcegraph/conc/panics"
)

// DDS runs f with a double defer sandwich and returns its error.
// A panic in f is returned as *panics.ErrRecovered; runtime.Goexit in f yields nil.
func DDS(f func() error) error {
	var dds DoubleDeferSandwich
	return dds.Invoke(f)
}

// DoubleDeferSandwich tells a panic in a callback apart from runtime.Goexit.
type DoubleDeferSandwich struct {
	// OnGoexit is called when the function calls runtime.Goexit.
	OnGoexit func()
}

// Invoke runs f. It returns the error of f, or the recovered panic value
// as *panics.ErrRecovered. If f calls runtime.Goexit, OnGoexit is called.
func (dds *DoubleDeferSandwich) Invoke(f func() error) (err error) {
	var (
		normalReturn bool
		recovered    bool
		panicValue   panics.Recovered
	)
	defer func() {
		switch {
		case normalReturn:
			return
		case recovered:
			err = panicValue.AsError()
		default:
			if dds.OnGoexit != nil {
				dds.OnGoexit()
			}
		}
	}()
	func() {
		defer func() {
			panicValue = panics.NewRecovered(2, recover())
		}()
		err = f()
		normalReturn = true
	}()
	if !normalReturn {
		recovered = true
	}
	return
}
