// Package binding registers the databases that live outside the core
// package.
package binding

import (
	"github.com/hhkbp2/hotbench"
)

func AddBindings() {
	hotbench.RegisterDB("mysql", func() hotbench.DB {
		return NewMysqlDB()
	})
	hotbench.RegisterDB("redis", func() hotbench.DB {
		return NewRedisDB()
	})
}
