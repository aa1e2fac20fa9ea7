package httpapi

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nikolayk812/ecart-demo/internal/domain"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const archProbeTimeout = 2 * time.Second

type probeView struct {
	Status string `json:"status"`
	State  string `json:"state,omitempty"`
	Error  string `json:"error,omitempty"`
}

type appServerView struct {
	Role         string `json:"role"`
	Architecture string `json:"architecture"`
	OS           string `json:"os"`
	Platform     string `json:"platform,omitempty"`
	Kernel       string `json:"kernel,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	CPUs         int    `json:"cpus,omitempty"`
	MemoryBytes  uint64 `json:"memoryBytes,omitempty"`
	GoVersion    string `json:"goVersion"`
	Node         string `json:"node"`
	Pod          string `json:"pod"`
}

type databaseView struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Name          string `json:"name"`
	State         string `json:"state"`
	Connected     bool   `json:"connected"`
	ServerVersion string `json:"serverVersion,omitempty"`
}

type archView struct {
	AppServer appServerView `json:"appServer"`
	Database  databaseView  `json:"database"`
}

// health is liveness: it never touches the database.
func (h *handlers) health(c echo.Context) error {
	return ok(c, probeView{Status: "ok"})
}

// ready succeeds only while the database is connected and answers a ping.
func (h *handlers) ready(c echo.Context) error {
	state := h.Database.State()
	if state != domain.Connected {
		return c.JSON(http.StatusServiceUnavailable, probeView{Status: "not ready", State: state.String()})
	}

	// a failed ping is handed to the manager, which moves to Failed asynchronously
	if err := h.Database.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, probeView{
			Status: "not ready",
			State:  domain.Failed.String(),
			Error:  err.Error(),
		})
	}

	return ok(c, probeView{Status: "ready", State: domain.Connected.String()})
}

func (h *handlers) arch(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), archProbeTimeout)
	defer cancel()

	return ok(c, archView{
		AppServer: h.appServer(ctx),
		Database:  h.database(ctx),
	})
}

func (h *handlers) appServer(ctx context.Context) appServerView {
	view := appServerView{
		Role:         h.Instance.Role,
		Architecture: runtime.GOARCH,
		OS:           runtime.GOOS,
		GoVersion:    runtime.Version(),
		Node:         h.Instance.NodeName,
		Pod:          h.Instance.PodName,
	}

	if info, err := host.InfoWithContext(ctx); err != nil {
		h.log.WithError(err).Debug("host.InfoWithContext")
	} else {
		view.Platform = info.Platform + " " + info.PlatformVersion
		view.Kernel = info.KernelVersion
		view.Hostname = info.Hostname
		if info.KernelArch != "" {
			view.Architecture = info.KernelArch
		}
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		h.log.WithError(err).Debug("cpu.CountsWithContext")
	} else {
		view.CPUs = n
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		h.log.WithError(err).Debug("mem.VirtualMemoryWithContext")
	} else {
		view.MemoryBytes = vm.Total
	}

	return view
}

func (h *handlers) database(ctx context.Context) databaseView {
	id := h.Database.Identity()
	state := h.Database.State()

	view := databaseView{
		Host:      id.Host,
		Port:      id.Port,
		Name:      id.Name,
		State:     state.String(),
		Connected: state == domain.Connected,
	}

	if view.Connected {
		version, err := h.Database.ServerVersion(ctx)
		if err != nil {
			h.log.WithError(err).Debug("ServerVersion")
		} else {
			view.ServerVersion = version
		}
	}

	return view
}
