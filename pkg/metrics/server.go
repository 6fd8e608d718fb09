package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/itohio/voltlog/pkg/sample"
)

// Status is the body served on /status.
type Status struct {
	State   string  `json:"state"`
	Samples int     `json:"samples"`
	Last    *Point  `json:"last,omitempty"`
	Uptime  float64 `json:"uptime_seconds"`
}

// Point is one sample in JSON form.
type Point struct {
	Time    float64 `json:"time"`
	Voltage float64 `json:"voltage"`
}

// Source provides the data served by the status endpoints.
type Source interface {
	History() []sample.Sample
	StateName() string
}

// Server serves /metrics, /history and /status.
type Server struct {
	engine  *gin.Engine
	started time.Time
}

// NewServer builds the router. src is called on every request so the
// current run is served.
func NewServer(m *Metrics, src func() Source) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{engine: r, started: time.Now()}

	r.GET("/metrics", gin.WrapH(m.Handler()))

	r.GET("/history", func(c *gin.Context) {
		history := historyOf(src())
		points := make([]Point, len(history))
		for i, smp := range history {
			points[i] = Point{Time: smp.Time, Voltage: smp.Value}
		}
		c.JSON(http.StatusOK, points)
	})

	r.GET("/status", func(c *gin.Context) {
		cur := src()
		history := historyOf(cur)
		st := Status{
			State:   "idle",
			Samples: len(history),
			Uptime:  time.Since(s.started).Seconds(),
		}
		if cur != nil {
			st.State = cur.StateName()
		}
		if n := len(history); n > 0 {
			st.Last = &Point{Time: history[n-1].Time, Voltage: history[n-1].Value}
		}
		c.JSON(http.StatusOK, st)
	})

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on address until ctx is cancelled.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func historyOf(src Source) []sample.Sample {
	if src == nil {
		return nil
	}
	return src.History()
}
