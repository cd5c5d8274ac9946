//go:build !(js && wasm)

package storage

import "fmt"

func openLocalStorage() (KV, error) {
	return nil, fmt.Errorf("%w: localstorage is only available in the browser build", ErrUnknownBackend)
}
