package models

// All lists every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Credential{},
		&JobDescription{},
		&ResumeRecord{},
		&ResumeVector{},
		&Interview{},
	}
}
