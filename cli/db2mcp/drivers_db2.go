//go:build !nodb2

package main

// The DB2 driver needs cgo and the IBM CLI driver; build with -tags nodb2 to
// leave it out.
import _ "github.com/ibmdb/go_ibm_db"
