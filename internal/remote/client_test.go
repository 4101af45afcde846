package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// stub serves a fixed JSON body per path and records request bodies.
func stub(t *testing.T, replies map[string]string) (*httptest.Server, *[]map[string]string) {
	t.Helper()
	var seen []map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		body := map[string]string{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		body["_path"] = r.URL.Path
		seen = append(seen, body)

		reply, ok := replies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestAddComponentAccepted(t *testing.T) {
	srv, seen := stub(t, map[string]string{
		"/add_component": `{"status":"Electrolyzer E1 added"}`,
	})
	c := New(srv.URL)

	out, err := c.AddComponent(context.Background(), "Electrolyzer", "E1")
	if err != nil {
		t.Fatalf("AddComponent failed: %v", err)
	}
	if !out.Accepted || out.Status != "Electrolyzer E1 added" {
		t.Errorf("unexpected outcome %+v", out)
	}
	req := (*seen)[0]
	if req["type"] != "Electrolyzer" || req["name"] != "E1" {
		t.Errorf("unexpected request body %v", req)
	}
}

func TestAddComponentRejected(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"/add_component": `{"status":"Component already exists","name":"E1","type":"Electrolyzer"}`,
	})

	out, err := New(srv.URL).AddComponent(context.Background(), "Electrolyzer", "E1")
	if err != nil {
		t.Fatalf("AddComponent failed: %v", err)
	}
	if out.Accepted {
		t.Error("status without 'added' should not be accepted")
	}
}

func TestConnectComponents(t *testing.T) {
	srv, seen := stub(t, map[string]string{
		"/connect_components": `{"status":"Connected","source":"A","target":"B"}`,
	})

	out, err := New(srv.URL).ConnectComponents(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("ConnectComponents failed: %v", err)
	}
	if !out.Connected || out.Source != "A" || out.Target != "B" {
		t.Errorf("unexpected outcome %+v", out)
	}
	if (*seen)[0]["source"] != "A" || (*seen)[0]["target"] != "B" {
		t.Errorf("unexpected request %v", (*seen)[0])
	}
}

func TestConnectComponentsError(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"/connect_components": `{"status":"Error","message":"no such target"}`,
	})

	out, err := New(srv.URL).ConnectComponents(context.Background(), "A", "B")
	if err != nil {
		t.Fatalf("ConnectComponents failed: %v", err)
	}
	if out.Connected || out.Message != "no such target" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestSimulate(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"/simulate": `{"status":"Simulation complete","results":{"steps":2,"traces":[{"electrolyzer":"E1","power_source":"B","power_input_mw":[5,5],"hydrogen_mw":[3.5,3.5],"storage_level_mwh":[0,0]}]}}`,
	})

	out, err := New(srv.URL).Simulate(context.Background())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if !out.Complete {
		t.Error("expected complete outcome")
	}
	if out.Results == nil || out.Results.Steps != 2 || out.Results.Traces[0].Electrolyzer != "E1" {
		t.Errorf("unexpected results %+v", out.Results)
	}
}

func TestSimulateOtherStatus(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"/simulate": `{"status":"Still running"}`,
	})

	out, err := New(srv.URL).Simulate(context.Background())
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if out.Complete || out.Status != "Still running" {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestReset(t *testing.T) {
	srv, seen := stub(t, map[string]string{
		"/reset": `{"status":"Simulation reset"}`,
	})

	out, err := New(srv.URL + "/").Reset(context.Background())
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if out.Status != "Simulation reset" {
		t.Errorf("unexpected status %q", out.Status)
	}
	if (*seen)[0]["_path"] != "/reset" {
		t.Errorf("trailing slash should be trimmed, got path %q", (*seen)[0]["_path"])
	}
}

func TestTransportErrors(t *testing.T) {
	srv, _ := stub(t, map[string]string{
		"/reset": `not json`,
	})
	c := New(srv.URL)

	if _, err := c.Reset(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("parse failure should be ErrTransport, got %v", err)
	}
	if _, err := c.Simulate(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("HTTP 404 should be ErrTransport, got %v", err)
	}

	srv.Close()
	if _, err := c.AddComponent(context.Background(), "Electrolyzer", "E1"); !errors.Is(err, ErrTransport) {
		t.Errorf("connection failure should be ErrTransport, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status":"Simulation reset"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithTimeout(20*time.Millisecond))
	if _, err := c.Reset(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("timeout should be ErrTransport, got %v", err)
	}
}

func TestWithTimeoutBeforeHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"status":"Simulation reset"}`))
	}))
	defer srv.Close()

	hc := &http.Client{}
	c := New(srv.URL, WithTimeout(20*time.Millisecond), WithHTTPClient(hc))
	if _, err := c.Reset(context.Background()); !errors.Is(err, ErrTransport) {
		t.Errorf("timeout should survive a later WithHTTPClient, got %v", err)
	}
	if hc.Timeout != 0 {
		t.Error("the caller's HTTP client should not be modified")
	}
}
