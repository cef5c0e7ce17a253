package config

import (
	"os"
	"strconv"
	"time"
)

func initUint(variable *uint, name string, defaultValue uint) {
	str := os.Getenv(name)
	val, err := strconv.Atoi(str)
	if len(str) == 0 || err != nil || val < 0 {
		*variable = defaultValue
		return
	}
	*variable = uint(val)
}

func initPort(variable *uint16, name string, defaultValue uint16) {
	var tmpval uint
	initUint(&tmpval, name, uint(defaultValue))
	if tmpval > maxPort {
		tmpval = uint(defaultValue)
	}
	*variable = uint16(tmpval)
}

func initMilliseconds(variable *time.Duration, name string, defaultValue time.Duration) {
	var tmpval uint
	initUint(&tmpval, name, uint(defaultValue/time.Millisecond))
	*variable = time.Duration(tmpval) * time.Millisecond
}

func initBool(variable *bool, name string, defaultValue bool) {
	str := os.Getenv(name)
	val, err := strconv.ParseBool(str)
	if len(str) == 0 || err != nil {
		*variable = defaultValue
		return
	}
	*variable = val
}

func initString(variable *string, name string, defaultValue string) {
	str := os.Getenv(name)
	if len(str) == 0 {
		*variable = defaultValue
		return
	}
	*variable = str
}
