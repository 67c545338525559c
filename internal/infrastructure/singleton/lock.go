// Package singleton 保证同一端口上只运行一个服务实例
package singleton

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// HealthCheckTimeout 探测已有实例的超时时间
const HealthCheckTimeout = 2 * time.Second

// ErrPortBusy 端口被其他程序占用
var ErrPortBusy = errors.New("port is used by another process")

// CheckAndLock 尝试占用端口
// 端口可用时返回 listener；端口上已运行本服务时返回 nil, nil（调用者应退出）
func CheckAndLock(port string) (net.Listener, error) {
	listener, err := net.Listen("tcp", port)
	if err == nil {
		return listener, nil
	}

	if !isAddrInUse(err) {
		return nil, fmt.Errorf("listen on %s: %w", port, err)
	}
	if isInstanceRunning(port) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPortBusy, port)
}

// isAddrInUse 检查错误是否是地址已在使用
func isAddrInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EADDRINUSE) {
		return true
	}
	// Windows: WSAEADDRINUSE
	var errno syscall.Errno
	if errors.As(err, &errno) && errno == 10048 {
		return true
	}
	return strings.Contains(err.Error(), "address already in use")
}

// isInstanceRunning 通过根路径判断端口上是否是本服务
// 健康检查在索引不可用时返回 503，不能用来判断实例是否存活
func isInstanceRunning(port string) bool {
	client := &http.Client{
		Timeout: HealthCheckTimeout,
	}

	host := port
	if strings.HasPrefix(port, ":") {
		host = "localhost" + port
	}

	resp, err := client.Get("http://" + host + "/")
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var info struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return false
	}
	return info.Status == "online"
}
