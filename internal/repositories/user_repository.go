package repositories

import (
	"github.com/mroshb/anon_chat/internal/models"
	"github.com/mroshb/anon_chat/pkg/errors"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureUser returns the user for a Telegram identity, creating it on first
// contact and refreshing the public name fields when they changed.
func (r *UserRepository) EnsureUser(telegramID int64, firstName, lastName, username string) (*models.User, error) {
	var user models.User
	result := r.db.Where(models.User{TelegramID: telegramID}).
		Attrs(models.User{FirstName: firstName, LastName: lastName, Username: username}).
		FirstOrCreate(&user)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to ensure user")
	}

	if user.FirstName != firstName || user.LastName != lastName || user.Username != username {
		updates := map[string]interface{}{
			"first_name": firstName,
			"last_name":  lastName,
			"username":   username,
		}
		if err := r.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to update user names")
		}
		user.FirstName, user.LastName, user.Username = firstName, lastName, username
	}

	return &user, nil
}

// GetUserByTelegramID retrieves a user by Telegram ID
func (r *UserRepository) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	var user models.User
	result := r.db.Where("telegram_id = ?", telegramID).First(&user)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "user not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get user")
	}

	return &user, nil
}

// GetProfile returns the full profile used for reveal cards.
func (r *UserRepository) GetProfile(telegramID int64) (*models.User, error) {
	return r.GetUserByTelegramID(telegramID)
}

// GetPreferences returns the user's own gender and the gender they seek.
// ok is false when either value is unset or the user is unknown.
func (r *UserRepository) GetPreferences(telegramID int64) (gender, seeking string, ok bool, err error) {
	user, err := r.GetUserByTelegramID(telegramID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return "", "", false, nil
		}
		return "", "", false, err
	}
	return user.Gender, user.Seeking, user.HasPreferences(), nil
}

func (r *UserRepository) UpdateGender(telegramID int64, gender string) error {
	if !models.ValidGender(gender) {
		return errors.New(errors.ErrCodeValidation, "invalid gender")
	}
	return r.updateField(telegramID, "gender", gender)
}

func (r *UserRepository) UpdateSeeking(telegramID int64, seeking string) error {
	if !models.ValidSeeking(seeking) {
		return errors.New(errors.ErrCodeValidation, "invalid seeking value")
	}
	return r.updateField(telegramID, "seeking", seeking)
}

func (r *UserRepository) SetRevealReady(telegramID int64, ready bool) error {
	return r.updateField(telegramID, "reveal_ready", ready)
}

// IsDisclosureReady reports whether the user's profile may be revealed.
func (r *UserRepository) IsDisclosureReady(telegramID int64) (bool, error) {
	user, err := r.GetUserByTelegramID(telegramID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return user.IsDisclosureReady(), nil
}

// UpdateLastActivity updates user's last activity timestamp
func (r *UserRepository) UpdateLastActivity(telegramID int64) error {
	result := r.db.Model(&models.User{}).Where("telegram_id = ?", telegramID).Update("last_activity", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update last activity")
	}
	return nil
}

func (r *UserRepository) CountUsers() (int64, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count users")
	}
	return count, nil
}

func (r *UserRepository) updateField(telegramID int64, column string, value interface{}) error {
	result := r.db.Model(&models.User{}).Where("telegram_id = ?", telegramID).Update(column, value)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update "+column)
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "user not found")
	}
	return nil
}
