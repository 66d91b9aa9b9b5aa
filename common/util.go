package common

import "os"

func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Remove deletes the file at path if it exists. Used by tests to clean up database files.
func Remove(path string) {
	_ = os.Remove(path)
}
