package loadbalancer

import (
	"net/http"
	"sync"
)

// LoadBalancer round-robins across the backend replicas of one module
// service. The gateway uses it when services.yaml lists more than one
// target for a prefix.
type LoadBalancer struct {
	servers []string
	mu      sync.Mutex
	current int
}

func New(servers []string) *LoadBalancer {
	return &LoadBalancer{servers: servers}
}

func (lb *LoadBalancer) NextServer() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	if len(lb.servers) == 0 {
		return ""
	}
	server := lb.servers[lb.current]
	lb.current = (lb.current + 1) % len(lb.servers)
	return server
}

func (lb *LoadBalancer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	server := lb.NextServer()
	if server == "" {
		http.Error(w, "no backend configured", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, server+r.RequestURI, http.StatusTemporaryRedirect)
}
