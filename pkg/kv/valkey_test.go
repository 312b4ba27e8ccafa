package kv

import "testing"

func TestValkeyKeyPrefix(t *testing.T) {
	s := &ValkeyStore{prefix: "cache:"}
	if got := s.key("result:mmcloud:job-1"); got != "cache:result:mmcloud:job-1" {
		t.Errorf("Expected prefixed key, got %s", got)
	}
}

func TestNewValkeyStoreUnreachable(t *testing.T) {
	if _, err := NewValkeyStore(ValkeyConfig{Addr: "127.0.0.1:0"}); err == nil {
		t.Error("Expected connection error for unreachable address")
	}
}
