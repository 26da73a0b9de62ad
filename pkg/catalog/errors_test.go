package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *FetchError
		want string
	}{
		{
			name: "status failure",
			err:  &FetchError{Resource: "products", StatusCode: 404},
			want: "Failed to fetch products. Status: 404",
		},
		{
			name: "transport failure",
			err:  &FetchError{Resource: "departments", Err: errors.New("connection refused")},
			want: "Failed to fetch departments: connection refused",
		},
		{
			name: "bare",
			err:  &FetchError{Resource: "data"},
			want: "Failed to fetch data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := fmt.Errorf("page: %w", &FetchError{Resource: "product", Err: cause})

	assert.ErrorIs(t, err, cause)

	var fe *FetchError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, "product", fe.Resource)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(&FetchError{Resource: "product", StatusCode: 404}))
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", &FetchError{StatusCode: 404})))
	assert.False(t, IsNotFound(&FetchError{Resource: "product", StatusCode: 500}))
	assert.False(t, IsNotFound(errors.New("404")))
	assert.False(t, IsNotFound(nil))
}
