package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/hira-inspection/internal/core/events"
	"github.com/frahmantamala/hira-inspection/internal/metrics"
	"github.com/frahmantamala/hira-inspection/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the lifecycle events and publish samples through the bus for debugging subscribers.`,
}

var listEventsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lifecycle event types",
	Run: func(cmd *cobra.Command, args []string) {
		for _, t := range sampleEventTypes() {
			fmt.Println(t)
		}
	},
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a sample event",
	Long:  `Publish a sample event to a bus with a logging subscriber and the metrics subscriber attached.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return publishSampleEvent(args[0])
	},
}

var (
	eventInspectionID int64
	eventRiskLevel    string
)

func sampleEvent(eventType string) (events.Event, bool) {
	switch eventType {
	case events.EventTypeAnalysisCompleted:
		return events.NewAnalysisCompletedEvent(eventInspectionID, 1, eventRiskLevel, []string{eventRiskLevel}, 1.5), true
	case events.EventTypeAnalysisFailed:
		return events.NewAnalysisFailedEvent(eventInspectionID, 1, "analyze", "sample failure", 1.5), true
	case events.EventTypeHazardAdded:
		return events.NewHazardAddedEvent(eventInspectionID, 1, eventRiskLevel, eventRiskLevel), true
	case events.EventTypeHazardOverridden:
		return events.NewHazardOverriddenEvent(eventInspectionID, 1, "Low", eventRiskLevel, eventRiskLevel), true
	case events.EventTypeInspectionDeleted:
		return events.NewInspectionDeletedEvent(eventInspectionID, 1), true
	case events.EventTypeInspectionsSwept:
		return events.NewInspectionsSweptEvent(1), true
	}
	return nil, false
}

func sampleEventTypes() []string {
	types := []string{
		events.EventTypeAnalysisCompleted,
		events.EventTypeAnalysisFailed,
		events.EventTypeHazardAdded,
		events.EventTypeHazardOverridden,
		events.EventTypeInspectionDeleted,
		events.EventTypeInspectionsSwept,
	}
	sort.Strings(types)
	return types
}

func publishSampleEvent(eventType string) error {
	event, ok := sampleEvent(eventType)
	if !ok {
		return fmt.Errorf("unknown event type %q (one of: %s)", eventType, strings.Join(sampleEventTypes(), ", "))
	}

	log := logger.LoggerWrapper()
	bus := events.NewEventBus(log)
	metrics.New().Subscribe(bus)
	bus.Subscribe(eventType, func(ctx context.Context, e events.Event) error {
		log.Info("event received",
			"event_id", e.EventID(),
			"event_type", e.EventType(),
			"payload", e.Payload())
		return nil
	})

	log.Info("publishing event", "event_type", eventType, "event_id", event.EventID())
	if err := bus.PublishSync(context.Background(), event); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventInspectionID, "inspection-id", 1, "inspection id carried by the event")
	publishEventCmd.Flags().StringVar(&eventRiskLevel, "risk-level", "High", "risk level carried by the event")

	eventCmd.AddCommand(listEventsCmd)
	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
