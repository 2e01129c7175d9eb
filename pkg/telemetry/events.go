package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a telemetry event emitted during configuration resolution.
type Event struct {
	// ID is the unique identifier for this event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type is the event type.
	Type string `json:"type"`

	// Source identifies where the event originated.
	Source string `json:"source"`

	// InstanceName is the associated instance, if applicable.
	InstanceName string `json:"instance_name,omitempty"`

	// ReplicasetName is the associated replicaset, if applicable.
	ReplicasetName string `json:"replicaset_name,omitempty"`

	// Message is a human-readable event message.
	Message string `json:"message"`

	// Level is the event severity level (info, warning, error).
	Level string `json:"level"`

	// Data contains additional event-specific data.
	Data map[string]interface{} `json:"data,omitempty"`
}

// EventType constants for common event types.
const (
	EventTypeResolutionStarted   = "resolution.started"
	EventTypeResolutionCompleted = "resolution.completed"
	EventTypeResolutionFailed    = "resolution.failed"
	EventTypeReloadApplied       = "reload.applied"
	EventTypeReloadRejected      = "reload.rejected"
	EventTypeIdentitySaved       = "identity.saved"
)

// EventLevel constants for event severity.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// EventSubscriber is a function that handles events.
type EventSubscriber func(event Event)

// EventFilter determines if an event should be processed.
type EventFilter func(event Event) bool

// EventPublisher manages event publishing and subscriptions.
type EventPublisher struct {
	config      EventsConfig
	buffer      chan Event
	subscribers []subscriberEntry
	wg          sync.WaitGroup
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

type subscriberEntry struct {
	subscriber EventSubscriber
	filter     EventFilter
}

// NewEventPublisher creates a new event publisher with the given configuration.
func NewEventPublisher(cfg EventsConfig) (*EventPublisher, error) {
	if !cfg.Enabled {
		return &EventPublisher{config: cfg}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPublisher{
		config:      cfg,
		buffer:      make(chan Event, cfg.BufferSize),
		subscribers: make([]subscriberEntry, 0),
		ctx:         ctx,
		cancel:      cancel,
	}

	ep.wg.Add(1)
	go ep.processEvents()

	return ep, nil
}

// Publish publishes an event to all subscribers.
func (ep *EventPublisher) Publish(event Event) error {
	if !ep.config.Enabled {
		return nil
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case ep.buffer <- event:
		return nil
	case <-ep.ctx.Done():
		return fmt.Errorf("event publisher stopped")
	default:
		return fmt.Errorf("event buffer full, event dropped")
	}
}

// PublishResolutionStarted publishes a resolution started event.
func (ep *EventPublisher) PublishResolutionStarted(instanceName string) error {
	return ep.Publish(Event{
		Type:         EventTypeResolutionStarted,
		Source:       "resolver",
		InstanceName: instanceName,
		Message:      fmt.Sprintf("Resolution started for instance %s", instanceName),
		Level:        EventLevelInfo,
	})
}

// PublishResolutionCompleted publishes a resolution completed event.
func (ep *EventPublisher) PublishResolutionCompleted(instanceName string, duration time.Duration) error {
	return ep.Publish(Event{
		Type:         EventTypeResolutionCompleted,
		Source:       "resolver",
		InstanceName: instanceName,
		Message:      fmt.Sprintf("Resolution completed for instance %s", instanceName),
		Level:        EventLevelInfo,
		Data: map[string]interface{}{
			"duration": duration.Seconds(),
		},
	})
}

// PublishResolutionFailed publishes a resolution failed event.
func (ep *EventPublisher) PublishResolutionFailed(instanceName, reason string) error {
	return ep.Publish(Event{
		Type:         EventTypeResolutionFailed,
		Source:       "resolver",
		InstanceName: instanceName,
		Message:      fmt.Sprintf("Resolution failed for instance %s: %s", instanceName, reason),
		Level:        EventLevelError,
		Data: map[string]interface{}{
			"reason": reason,
		},
	})
}

// PublishReloadApplied publishes a reload applied event.
func (ep *EventPublisher) PublishReloadApplied(path string) error {
	return ep.Publish(Event{
		Type:    EventTypeReloadApplied,
		Source:  "watcher",
		Message: fmt.Sprintf("Reloaded configuration from %s", path),
		Level:   EventLevelInfo,
		Data: map[string]interface{}{
			"path": path,
		},
	})
}

// PublishReloadRejected publishes a reload rejected event.
func (ep *EventPublisher) PublishReloadRejected(path, reason string) error {
	return ep.Publish(Event{
		Type:    EventTypeReloadRejected,
		Source:  "watcher",
		Message: fmt.Sprintf("Rejected configuration from %s: %s", path, reason),
		Level:   EventLevelWarning,
		Data: map[string]interface{}{
			"path":   path,
			"reason": reason,
		},
	})
}

// PublishIdentitySaved publishes an identity saved event.
func (ep *EventPublisher) PublishIdentitySaved(instanceName, replicasetName string) error {
	return ep.Publish(Event{
		Type:           EventTypeIdentitySaved,
		Source:         "catalog",
		InstanceName:   instanceName,
		ReplicasetName: replicasetName,
		Message:        fmt.Sprintf("Saved identity for instance %s in replicaset %s", instanceName, replicasetName),
		Level:          EventLevelInfo,
	})
}

// Subscribe adds a new event subscriber.
func (ep *EventPublisher) Subscribe(subscriber EventSubscriber, filter EventFilter) {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	ep.subscribers = append(ep.subscribers, subscriberEntry{
		subscriber: subscriber,
		filter:     filter,
	})
}

// processEvents delivers events from the buffer asynchronously.
func (ep *EventPublisher) processEvents() {
	defer ep.wg.Done()

	for {
		select {
		case event := <-ep.buffer:
			ep.deliverEvent(event)
		case <-ep.ctx.Done():
			// Drain remaining events before shutting down
			for {
				select {
				case event := <-ep.buffer:
					ep.deliverEvent(event)
				default:
					return
				}
			}
		}
	}
}

// deliverEvent delivers an event to all subscribers.
func (ep *EventPublisher) deliverEvent(event Event) {
	ep.mu.RLock()
	defer ep.mu.RUnlock()

	for _, entry := range ep.subscribers {
		if entry.filter != nil && !entry.filter(event) {
			continue
		}
		entry.subscriber(event)
	}
}

// Shutdown gracefully shuts down the event publisher.
func (ep *EventPublisher) Shutdown(ctx context.Context) error {
	if !ep.config.Enabled {
		return nil
	}

	ep.cancel()

	done := make(chan struct{})
	go func() {
		ep.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event publisher shutdown timeout")
	}
}

// FilterByLevel creates a filter that only allows events of a specific level or higher.
func FilterByLevel(minLevel string) EventFilter {
	levels := map[string]int{
		EventLevelInfo:    0,
		EventLevelWarning: 1,
		EventLevelError:   2,
	}

	minLevelValue := levels[minLevel]

	return func(event Event) bool {
		return levels[event.Level] >= minLevelValue
	}
}

// FilterByType creates a filter that only allows events of specific types.
func FilterByType(types ...string) EventFilter {
	typeSet := make(map[string]bool)
	for _, t := range types {
		typeSet[t] = true
	}

	return func(event Event) bool {
		return typeSet[event.Type]
	}
}

// FilterByInstance creates a filter that only allows events for a specific instance.
func FilterByInstance(instanceName string) EventFilter {
	return func(event Event) bool {
		return event.InstanceName == instanceName
	}
}
