package monitor

import "github.com/dmitrijs2005/pagewatch/internal/models"

// NextStatus derives the status after observing next. A monitor becomes
// changed only when it had a prior value and next differs from it.
func NextStatus(prev *string, next string) models.Status {
	if prev != nil && *prev != next {
		return models.StatusChanged
	}
	return models.StatusStable
}
