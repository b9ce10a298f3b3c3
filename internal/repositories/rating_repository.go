package repositories

import (
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// AddRating stores a rating. Each participant may rate a session once;
// a second attempt returns ALREADY_EXISTS.
func (r *RatingRepository) AddRating(rating *models.Rating) error {
	if rating.Score < 1 || rating.Score > 5 {
		return errors.New(errors.ErrCodeValidation, "score must be between 1 and 5")
	}

	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(rating)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to save rating")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeAlreadyExists, "session already rated")
	}
	return nil
}

func (r *RatingRepository) AddComplaint(complaint *models.Complaint) error {
	if err := r.db.Create(complaint).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to save complaint")
	}
	return nil
}

// AverageFor returns the average score the user received.
func (r *RatingRepository) AverageFor(userID int64) (models.RatingSummary, error) {
	var summary models.RatingSummary
	err := r.db.Model(&models.Rating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("rated_id = ?", userID).
		Scan(&summary).Error
	if err != nil {
		return summary, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get rating")
	}
	return summary, nil
}
