package service

import "github.com/go-playground/validator/v10"

// validate checks request payloads against their struct tags. Auth and user
// services keep injectable instances instead.
var validate = validator.New()
