//go:build tinygo

package main

import (
	"brainos/config"
	"brainos/hal"
	"brainos/system"
	"brainos/tasks/demo"
)

func main() {
	h := hal.New()
	s, err := system.New(h, config.Default(), demo.Program)
	if err != nil {
		h.Logger().WriteLineString("system: " + err.Error())
		select {}
	}
	s.Run()
}
