package entities

import "time"

type ErrorResponse struct {
	Message         string    `json:"message"`
	DetailedMessage string    `json:"detailedMessage"`
	ErrorTime       time.Time `json:"errorTime"`
}
