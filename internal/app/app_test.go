package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/uplink-next/internal/config"
	"github.com/uplink-next/internal/models"
	"github.com/uplink-next/internal/provider"
	"github.com/uplink-next/internal/queue"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fakeService struct {
	name     string
	startErr error
	stopped  *int32
	order    *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Stop(context.Context) error {
	atomic.AddInt32(f.stopped, 1)
	if f.order != nil {
		*f.order = append(*f.order, f.name)
	}
	return nil
}

func TestRunnerStopsAllWhenOneFails(t *testing.T) {
	var stopped int32
	var order []string
	boom := errors.New("boom")
	runner := NewRunner(
		&fakeService{name: "first", stopped: &stopped, order: &order},
		nil,
		&fakeService{name: "second", startErr: boom, stopped: &stopped, order: &order},
	)
	if len(runner.Services()) != 2 {
		t.Fatalf("nil service should be dropped, got %d", len(runner.Services()))
	}

	err := runner.Run(context.Background(), time.Second, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("want boom got %v", err)
	}
	if atomic.LoadInt32(&stopped) != 2 {
		t.Fatalf("all services should be stopped, got %d", stopped)
	}
	if strings.Join(order, ",") != "second,first" {
		t.Fatalf("services should stop in reverse order, got %v", order)
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	var stopped int32
	runner := NewRunner(&fakeService{name: "idle", stopped: &stopped})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancel should not be an error: %v", err)
	}
	if err := NewRunner().Run(context.Background(), time.Second, nil); err == nil {
		t.Fatalf("empty runner should fail")
	}
}

func TestHTTPServiceServeAndStop(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	svc := NewHTTPService(listener.Addr().String(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Serve(context.Background(), listener)
	}()

	resp, err := http.Get("http://" + listener.Addr().String() + "/")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if string(body) != "ok" {
		t.Fatalf("unexpected body: %s", body)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("serve should return nil after shutdown: %v", err)
	}
}

func TestBuildServicesByMode(t *testing.T) {
	dsn := fmt.Sprintf("file:app_build_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	cfg := &config.Config{
		Server:     config.ServerConfig{Host: "127.0.0.1", Port: "0", Mode: "debug"},
		Commission: config.CommissionConfig{Levels: 1, LevelPercentages: []float64{10}, PointRate: 1},
	}
	queueClient, _ := queue.NewClient(nil)
	container := provider.Build(cfg, db, queueClient)

	cases := []struct {
		mode  string
		names []string
	}{
		{mode: ModeAll, names: []string{"http", "retry_sweep"}},
		{mode: ModeAPI, names: []string{"http"}},
		{mode: ModeWorker, names: []string{"retry_sweep"}},
	}
	for _, tc := range cases {
		services, err := buildServices(cfg, container, tc.mode)
		if err != nil {
			t.Fatalf("mode %s: build failed: %v", tc.mode, err)
		}
		names := make([]string, 0, len(services))
		for _, svc := range services {
			names = append(names, svc.Name())
		}
		if strings.Join(names, ",") != strings.Join(tc.names, ",") {
			t.Fatalf("mode %s: want %v got %v", tc.mode, tc.names, names)
		}
	}

	if _, err := BuildRunner(cfg, "cron"); err == nil {
		t.Fatalf("unknown mode should be rejected")
	}
}
