package service

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// ConsulHelper 封装 Consul 服务注册
// 使用前请确保 Consul agent 已启动
type ConsulHelper struct {
	client *api.Client
}

// NewConsulHelperWithAddrs 依次尝试多个 Consul 地址，返回第一个可用的
func NewConsulHelperWithAddrs(addrs []string, username, password string) (*ConsulHelper, error) {
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no consul address configured")
	}
	var lastErr error
	for _, addr := range addrs {
		cfg := api.DefaultConfig()
		cfg.Address = addr
		if username != "" {
			cfg.HttpAuth = &api.HttpBasicAuth{Username: username, Password: password}
		}
		cli, err := api.NewClient(cfg)
		if err != nil {
			lastErr = err
			continue
		}
		// 尝试健康检查
		if _, err := cli.Agent().Self(); err != nil {
			lastErr = err
			continue
		}
		return &ConsulHelper{client: cli}, nil
	}
	return nil, fmt.Errorf("all consul addresses failed: %v", lastErr)
}

// RegisterService 注册 HTTP 服务，健康检查走 /ping
func (c *ConsulHelper) RegisterService(serviceID, name, host string, port int) error {
	reg := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    name,
		Address: host,
		Port:    port,
		Tags:    []string{"http", "ledger"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/ping", host, port),
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
	return c.client.Agent().ServiceRegister(reg)
}

func (c *ConsulHelper) DeregisterService(serviceID string) error {
	return c.client.Agent().ServiceDeregister(serviceID)
}

// Client 返回 consul client
func (c *ConsulHelper) Client() *api.Client {
	return c.client
}
