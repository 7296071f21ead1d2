package businessprofile

import (
	"context"
	"errors"
	"strings"

	"team-inbox-backend/internal/database"
	"team-inbox-backend/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var ErrNotFound = errors.New("business profile repository: not found")

type Repository interface {
	GetBusinessProfile(ctx context.Context, businessProfileID string) (model.BusinessProfileItem, error)
}

type DynamoRepository struct {
	db *database.Database
}

func NewDynamoRepository(db *database.Database) Repository {
	return &DynamoRepository{db: db}
}

func (r *DynamoRepository) GetBusinessProfile(ctx context.Context, businessProfileID string) (model.BusinessProfileItem, error) {
	var profile model.BusinessProfileItem
	err := r.db.Client.GetItem(
		ctx,
		model.BusinessProfilesTable,
		map[string]types.AttributeValue{
			"businessProfileId": &types.AttributeValueMemberS{Value: businessProfileID},
		},
		&profile,
	)
	if err != nil {
		if isNotFoundError(err) {
			return model.BusinessProfileItem{}, ErrNotFound
		}
		return model.BusinessProfileItem{}, err
	}
	return profile, nil
}

func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "item not found")
}
