package smc

import (
	"github.com/charlie0129/gosmc"
)

// Connection is the subset of gosmc.Connection used by AppleSMC.
type Connection interface {
	Open() error
	Close() error
	Read(key string) (gosmc.SMCVal, error)
	Write(key string, value []byte) error
}
