package services

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// OccupancySample is one point of the warden dashboard feed.
type OccupancySample struct {
	CapturedAt time.Time `json:"captured_at"`
	OccupancySummary
	ProcessRSSBytes   int64   `json:"process_rss_bytes"`
	ProcessCPULoad    float64 `json:"process_cpu_load"`
	SystemMemoryTotal int64   `json:"system_memory_total_bytes"`
	SystemMemoryUsed  int64   `json:"system_memory_used_bytes"`
	DiskTotalBytes    int64   `json:"disk_total_bytes"`
	DiskUsedBytes     int64   `json:"disk_used_bytes"`
}

// CaptureOccupancy combines the bed totals with host and process figures.
// Host figures that cannot be read are left at zero.
func (s *Service) CaptureOccupancy(ctx context.Context, diskPath string) (OccupancySample, error) {
	summary, err := s.OccupancySummary(ctx)
	if err != nil {
		return OccupancySample{}, err
	}
	sample := OccupancySample{CapturedAt: s.now(), OccupancySummary: summary}
	if proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfoWithContext(ctx); err == nil && info != nil {
			sample.ProcessRSSBytes = int64(info.RSS)
		}
		if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
			sample.ProcessCPULoad = pct / 100.0
		}
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		sample.SystemMemoryTotal = int64(vm.Total)
		sample.SystemMemoryUsed = int64(vm.Total - vm.Available)
	}
	usage, err := disk.UsageWithContext(ctx, diskPath)
	if err != nil {
		usage, err = disk.UsageWithContext(ctx, "/")
	}
	if err == nil && usage != nil {
		sample.DiskTotalBytes = int64(usage.Total)
		sample.DiskUsedBytes = int64(usage.Used)
	}
	s.Recorder.Occupancy(summary.OccupiedBeds, summary.AvailableBeds)
	return sample, nil
}

// RunSampler captures a sample every interval and hands it to hub until ctx
// is done.
func (s *Service) RunSampler(ctx context.Context, hub *OccupancyHub, interval time.Duration, diskPath string) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sample, err := s.CaptureOccupancy(ctx, diskPath)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.Log.Error().Err(err).Msg("occupancy capture")
				continue
			}
			hub.Broadcast(sample)
		case <-ctx.Done():
			return nil
		}
	}
}

// OccupancyHub keeps a bounded history of samples and fans them out to
// websocket clients.
type OccupancyHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	history []OccupancySample
	limit   int
	ch      chan OccupancySample
}

func NewOccupancyHub(limit int) *OccupancyHub {
	if limit <= 0 {
		limit = 240
	}
	return &OccupancyHub{
		clients: map[*websocket.Conn]bool{},
		limit:   limit,
		ch:      make(chan OccupancySample, 16),
	}
}

func (h *OccupancyHub) Run(ctx context.Context) error {
	for {
		select {
		case sample := <-h.ch:
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteJSON(sample); err != nil {
					delete(h.clients, conn)
					_ = conn.Close()
				}
			}
			h.mu.Unlock()
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				_ = conn.Close()
				delete(h.clients, conn)
			}
			h.mu.Unlock()
			return nil
		}
	}
}

// Broadcast records sample and queues it for clients. A full queue drops
// the live push but the sample stays in history.
func (h *OccupancyHub) Broadcast(sample OccupancySample) {
	h.mu.Lock()
	h.history = append(h.history, sample)
	if len(h.history) > h.limit {
		h.history = append([]OccupancySample(nil), h.history[len(h.history)-h.limit:]...)
	}
	h.mu.Unlock()
	select {
	case h.ch <- sample:
	default:
	}
}

// History returns up to limit samples, oldest first.
func (h *OccupancyHub) History(limit int) []OccupancySample {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit <= 0 || limit > len(h.history) {
		limit = len(h.history)
	}
	out := make([]OccupancySample, limit)
	copy(out, h.history[len(h.history)-limit:])
	return out
}

func (h *OccupancyHub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *OccupancyHub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *OccupancyHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
