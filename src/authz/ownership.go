package authz

import "Backend-Forms-Builder/src/models"

type TemplateOwnership struct {
	IsCreator     bool
	IsAllowedUser bool
	IsAdmin       bool
}

type FormOwnership struct {
	IsOwner bool
	IsAdmin bool
}

// ResolveTemplateOwnership relates a caller to a template. p may be nil for
// an anonymous caller. IsAdmin reflects p.Role as given; callers that need
// the live role pass a principal reloaded by Gate.
func ResolveTemplateOwnership(p *models.Principal, t *models.Template) TemplateOwnership {
	if p == nil || t == nil {
		return TemplateOwnership{}
	}
	o := TemplateOwnership{
		IsCreator: t.CreatedBy == p.ID,
		IsAdmin:   p.Role == models.RoleAdmin,
	}
	for _, id := range t.AllowedUsers {
		if id == p.ID {
			o.IsAllowedUser = true
			break
		}
	}
	return o
}

func ResolveFormOwnership(p *models.Principal, f *models.FormResponse) FormOwnership {
	if p == nil || f == nil {
		return FormOwnership{}
	}
	return FormOwnership{
		IsOwner: f.UserID == p.ID,
		IsAdmin: p.Role == models.RoleAdmin,
	}
}
