package health

import (
	"net/http"
	"sync"
	"time"

	"leadmsg/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Status represents the health status of a component
type Status string

const (
	// StatusUp indicates a component is working correctly
	StatusUp Status = "up"
	// StatusDown indicates a component is not working
	StatusDown Status = "down"
	// StatusDegraded indicates a component is working but with reduced functionality
	StatusDegraded Status = "degraded"
)

// Component represents a system component that can be health-checked
type Component struct {
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Description string    `json:"description,omitempty"`
	Error       string    `json:"error,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Check represents a health check function
type Check func() (Status, string, error)

// Checker manages health checks for the system
type Checker struct {
	checks     map[string]Check
	components map[string]*Component
	mutex      sync.RWMutex
	log        *logger.Logger
}

// NewChecker creates a new health checker
func NewChecker(log *logger.Logger) *Checker {
	checker := &Checker{
		checks:     make(map[string]Check),
		components: make(map[string]*Component),
		log:        log,
	}

	checker.RegisterCheck("self", func() (Status, string, error) {
		return StatusUp, "Health checker is running", nil
	})

	return checker
}

// RegisterCheck adds a named check
func (c *Checker) RegisterCheck(name string, check Check) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.checks[name] = check
}

// RunChecks executes all registered checks and returns the component states
func (c *Checker) RunChecks() (Status, []Component) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	overall := StatusUp
	components := make([]Component, 0, len(c.checks))

	for name, check := range c.checks {
		status, desc, err := check()

		comp := &Component{
			Name:        name,
			Status:      status,
			Description: desc,
			LastChecked: time.Now(),
		}
		if err != nil {
			comp.Error = err.Error()
			if c.log != nil {
				c.log.Warn("health check failed", "component", name, "error", err.Error())
			}
		}
		c.components[name] = comp
		components = append(components, *comp)

		switch status {
		case StatusDown:
			overall = StatusDown
		case StatusDegraded:
			if overall == StatusUp {
				overall = StatusDegraded
			}
		}
	}

	return overall, components
}

// Handler returns a gin handler reporting overall system health
func (c *Checker) Handler() gin.HandlerFunc {
	return func(g *gin.Context) {
		overall, components := c.RunChecks()

		code := http.StatusOK
		if overall == StatusDown {
			code = http.StatusServiceUnavailable
		}

		g.JSON(code, gin.H{
			"status":     overall,
			"components": components,
			"time":       time.Now().Format(time.RFC3339),
		})
	}
}
