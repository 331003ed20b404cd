// Package config builds a health monitor from an INI description of
// its monitor set.
//
// Example :
//
//	[health]
//	supervisor_cycle_ms = 500
//	internal_cycle_ms   = 100
//
//	[monitor.main-loop]
//	type   = heartbeat
//	min_ms = 80
//	max_ms = 120
//
//	[monitor.storage]
//	type = deadline
//
//	[monitor.storage.flush]
//	min_ms = 10
//	max_ms = 40
package config

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"time"

	lifecycle "github.com/eclipse-score/lifecycle"
	"github.com/eclipse-score/lifecycle/pkg/deadline"
	"github.com/eclipse-score/lifecycle/pkg/health"
	"github.com/eclipse-score/lifecycle/pkg/heartbeat"
	"gopkg.in/ini.v1"
)

const (
	healthSection = "health"

	typeHeartbeat = "heartbeat"
	typeDeadline  = "deadline"
)

// Monitor and deadline section matching.
var matchMonitorRegExp = regexp.MustCompile(`^monitor\.([\w-]+)$`)
var matchDeadlineRegExp = regexp.MustCompile(`^monitor\.([\w-]+)\.([\w-]+)$`)

// Manifest is the parsed monitor set : a configured builder plus the
// tags needed to acquire every handle afterwards.
type Manifest struct {
	Builder          *health.Builder
	Heartbeats       []lifecycle.MonitorTag
	DeadlineMonitors map[lifecycle.MonitorTag][]lifecycle.DeadlineTag
}

// Load parses a monitor set description.
// source can be a file path, []byte or io.Reader, anything accepted by
// the underlying INI loader.
func Load(source any, logger *slog.Logger) (*Manifest, error) {
	file, err := ini.Load(source)
	if err != nil {
		return nil, fmt.Errorf("loading monitor configuration failed : %w", err)
	}

	builder := health.NewBuilder().WithLogger(logger)
	internalCycle := health.DefaultInternalProcessingCycle

	if section, err := file.GetSection(healthSection); err == nil {
		if key, err := section.GetKey("supervisor_cycle_ms"); err == nil {
			ms, err := key.Uint64()
			if err != nil {
				return nil, fmt.Errorf("invalid supervisor_cycle_ms : %w", err)
			}
			builder.WithSupervisorAPICycle(time.Duration(ms) * time.Millisecond)
		}
		if key, err := section.GetKey("internal_cycle_ms"); err == nil {
			ms, err := key.Uint64()
			if err != nil {
				return nil, fmt.Errorf("invalid internal_cycle_ms : %w", err)
			}
			internalCycle = time.Duration(ms) * time.Millisecond
			builder.WithInternalProcessingCycle(internalCycle)
		}
	}

	manifest := &Manifest{
		Builder:          builder,
		DeadlineMonitors: map[lifecycle.MonitorTag][]lifecycle.DeadlineTag{},
	}
	deadlineBuilders := map[lifecycle.MonitorTag]*deadline.Builder{}

	// First pass : monitor declarations.
	for _, section := range file.Sections() {
		match := matchMonitorRegExp.FindStringSubmatch(section.Name())
		if match == nil {
			continue
		}
		tag := lifecycle.MonitorTag(match[1])
		switch section.Key("type").String() {
		case typeHeartbeat:
			rng, err := rangeFromSection(section)
			if err != nil {
				return nil, fmt.Errorf("monitor %q : %w", tag, err)
			}
			if 2*rng.Min <= internalCycle {
				return nil, fmt.Errorf("monitor %q : heartbeat range min %v too short for internal cycle %v",
					tag, rng.Min, internalCycle)
			}
			builder.AddHeartbeatMonitor(tag, heartbeat.NewBuilder(rng))
			manifest.Heartbeats = append(manifest.Heartbeats, tag)
		case typeDeadline:
			deadlineBuilders[tag] = deadline.NewBuilder()
		default:
			return nil, fmt.Errorf("monitor %q : unknown type %q", tag, section.Key("type").String())
		}
	}

	// Second pass : deadlines attached to deadline monitors.
	for _, section := range file.Sections() {
		match := matchDeadlineRegExp.FindStringSubmatch(section.Name())
		if match == nil {
			continue
		}
		monitorTag := lifecycle.MonitorTag(match[1])
		deadlineTag := lifecycle.DeadlineTag(match[2])
		monitorBuilder, ok := deadlineBuilders[monitorTag]
		if !ok {
			return nil, fmt.Errorf("deadline %q : no deadline monitor %q declared", deadlineTag, monitorTag)
		}
		rng, err := rangeFromSection(section)
		if err != nil {
			return nil, fmt.Errorf("deadline %q : %w", deadlineTag, err)
		}
		monitorBuilder.AddDeadline(deadlineTag, rng)
		manifest.DeadlineMonitors[monitorTag] = append(manifest.DeadlineMonitors[monitorTag], deadlineTag)
	}

	for tag, monitorBuilder := range deadlineBuilders {
		builder.AddDeadlineMonitor(tag, monitorBuilder)
	}
	sort.Slice(manifest.Heartbeats, func(i, j int) bool { return manifest.Heartbeats[i] < manifest.Heartbeats[j] })

	return manifest, nil
}

func rangeFromSection(section *ini.Section) (lifecycle.TimeRange, error) {
	min, err := section.Key("min_ms").Uint64()
	if err != nil {
		return lifecycle.TimeRange{}, fmt.Errorf("invalid min_ms : %w", err)
	}
	max, err := section.Key("max_ms").Uint64()
	if err != nil {
		return lifecycle.TimeRange{}, fmt.Errorf("invalid max_ms : %w", err)
	}
	if min > max {
		return lifecycle.TimeRange{}, fmt.Errorf("min_ms %d is greater than max_ms %d", min, max)
	}
	return lifecycle.NewTimeRange(time.Duration(min)*time.Millisecond, time.Duration(max)*time.Millisecond), nil
}
