package resource

import (
	"reflect"
	"testing"
	"time"
)

func TestAddAndListResources(t *testing.T) {
	rm := NewResourceManagerService(nil).(*ResourceManager)
	rm.AddResource("pgxpool", struct{}{})
	rm.AddResource("db", struct{}{})
	rm.AddResource("db", struct{}{}) // re-registering the same key is a no-op

	got := rm.ListResources()
	want := []string{"db", "pgxpool"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListResources() = %v, want %v", got, want)
	}
}

func TestHeartbeatIntervalFromConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  map[string]interface{}
		want time.Duration
	}{
		{"default", nil, 5 * time.Minute},
		{"duration string", map[string]interface{}{"heartbeat_interval": "2m"}, 2 * time.Minute},
		{"seconds number", map[string]interface{}{"heartbeat_interval": float64(30)}, 30 * time.Second},
		{"bad string falls back", map[string]interface{}{"heartbeat_interval": "soon"}, 5 * time.Minute},
	}
	for _, c := range cases {
		rm := NewResourceManagerService(c.cfg).(*ResourceManager)
		if rm.heartbeatInterval != c.want {
			t.Errorf("%s: interval = %v, want %v", c.name, rm.heartbeatInterval, c.want)
		}
	}
}
