//go:build js && wasm

package storage

func openLocalStorage() (KV, error) {
	return NewLocalStorageKV()
}
