// Copyright 2025 NetApp, Inc. All Rights Reserved.

package api

import "fmt"

// Error carries the HTTP status and error text from a failed Web Services Proxy call.
type Error struct {
	Code    int
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("API failed (%d); %s", e.Code, e.Message)
}
