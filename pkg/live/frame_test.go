package live

import (
	"encoding/json"
	"testing"
)

func TestServerFrameEncoding(t *testing.T) {
	f := serverFrame{Type: frameUpdate, View: "counter", Seq: 3, Data: map[string]any{"count": 1}}

	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"update","view":"counter","seq":3,"data":{"count":1}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestServerFrameOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(serverFrame{Type: framePong})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"type":"pong"}` {
		t.Errorf("expected bare pong frame, got %s", data)
	}
}

func TestClientFrameDecoding(t *testing.T) {
	raw := `{"type":"event","view":"counter","event":"increment","data":{"step":2},"seq":9}`

	var f clientFrame
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Type != frameEvent || f.View != "counter" || f.Event != "increment" || f.Seq != 9 {
		t.Errorf("unexpected frame: %+v", f)
	}
	if got, ok := f.Data["step"].(float64); !ok || got != 2 {
		t.Errorf("expected step 2, got %v", f.Data["step"])
	}
}
