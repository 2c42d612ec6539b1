package util

import (
	"errors"
	"net"
	"strconv"
	"strings"
)

var errSonyflakeUnavailable = errors.New("sonyflake: no usable machine id")

// SplitAddress 解析 ":8080" / "0.0.0.0:8080" 形式的监听地址
func SplitAddress(address string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(address))
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = LocalIP()
	}
	return host, port, nil
}
