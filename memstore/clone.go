package memstore

import (
	"slices"

	"teamup/models"
)

// go-memdb stores pointers; everything crossing the package boundary is
// copied so callers never alias stored records.

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	c.Skills = slices.Clone(p.Skills)
	if p.TeamID != nil {
		id := *p.TeamID
		c.TeamID = &id
	}
	return &c
}

func cloneTeam(t *models.Team) *models.Team {
	c := *t
	c.RolesNeeded = slices.Clone(t.RolesNeeded)
	c.Members = nil
	return &c
}

func cloneInvitation(i *models.Invitation) *models.Invitation {
	c := *i
	if i.RespondedAt != nil {
		at := *i.RespondedAt
		c.RespondedAt = &at
	}
	return &c
}

func clonePost(p *models.FeedPost) *models.FeedPost {
	c := *p
	c.RolesNeeded = slices.Clone(p.RolesNeeded)
	c.Tags = slices.Clone(p.Tags)
	return &c
}
