package domain

// AllModels returns every persisted model in migration order. Parents
// come before the tables that reference them.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&LocalCredential{},
		&VerificationToken{},
		&Session{},
		&Pet{},
		&Post{},
		&Comment{},
		&Like{},
		&FollowRelation{},
	}
}
