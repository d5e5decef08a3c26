package handlers

import (
	"github.com/geocoder89/supporthub/internal/domain/donation"
	"github.com/geocoder89/supporthub/internal/domain/user"
)

type knownError struct {
	err     error
	message string
}

var knownForbidden = []knownError{
	{user.ErrLastAdmin, "Cannot delete or demote the last admin user."},
}

var knownConflicts = []knownError{
	{donation.ErrCategoryInUse, "Category still has donations."},
	{user.ErrEmailTaken, "Email is already in use."},
}
