package reliability

import (
	"fmt"

	"github.com/rs/zerolog"
)

// DatabaseMaintenanceJob runs integrity checks and alert evaluation across
// every registered database on a schedule, implementing scheduler.Job.
type DatabaseMaintenanceJob struct {
	healthServices map[string]*DatabaseHealthService
	monitoring     *MonitoringService
	log            zerolog.Logger
}

// NewDatabaseMaintenanceJob builds a job over the given health services,
// sharing them with a MonitoringService for alert evaluation.
func NewDatabaseMaintenanceJob(healthServices map[string]*DatabaseHealthService, monitoring *MonitoringService, log zerolog.Logger) *DatabaseMaintenanceJob {
	return &DatabaseMaintenanceJob{
		healthServices: healthServices,
		monitoring:     monitoring,
		log:            log.With().Str("job", "database_maintenance").Logger(),
	}
}

func (j *DatabaseMaintenanceJob) Name() string { return "database_maintenance" }

func (j *DatabaseMaintenanceJob) Run() error {
	for name, svc := range j.healthServices {
		if err := svc.CheckAndRecover(); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("health check failed")
			return fmt.Errorf("database_maintenance: %s: %w", name, err)
		}
	}
	return j.monitoring.CheckAlerts()
}
