package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/fahrtenbuch/internal/domain"
	"github.com/pkordes/fahrtenbuch/internal/handler"
)

func vehiclesHandler(m *mockVehicleServicer) http.Handler {
	return newHTTPHandler(handler.Services{Vehicles: m})
}

func TestCreateVehicle_201(t *testing.T) {
	var got domain.Vehicle
	svc := &mockVehicleServicer{
		insert: func(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
			got = v
			v.ID = 4
			return v, nil
		},
	}

	rec := serve(vehiclesHandler(svc), http.MethodPost, "/vehicles", jsonBody(t, map[string]any{
		"make": "VW", "model": "Golf", "license_plate": "B-MW 1234", "fuel_type": "Diesel",
		"is_primary": true, "audit_protected": true,
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, got.IsPrimary)
	assert.True(t, got.AuditProtected)
	var resp domain.Vehicle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(4), resp.ID)
}

func TestCreateVehicle_422(t *testing.T) {
	svc := &mockVehicleServicer{
		insert: func(_ context.Context, _ domain.Vehicle) (domain.Vehicle, error) {
			return domain.Vehicle{}, domain.ValidationResult{"licensePlate": "not a valid German licence plate"}.Err()
		},
	}

	rec := serve(vehiclesHandler(svc), http.MethodPost, "/vehicles", jsonBody(t, map[string]any{"license_plate": "x"}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeError(t, rec).Fields, "licensePlate")
}

func TestListVehicles_200_Empty(t *testing.T) {
	svc := &mockVehicleServicer{
		list: func(context.Context) ([]domain.Vehicle, error) { return nil, nil },
	}

	rec := serve(vehiclesHandler(svc), http.MethodGet, "/vehicles", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestUpdateVehicle_UsesPathID(t *testing.T) {
	var got domain.Vehicle
	svc := &mockVehicleServicer{
		update: func(_ context.Context, v domain.Vehicle) (domain.Vehicle, error) {
			got = v
			return v, nil
		},
	}

	rec := serve(vehiclesHandler(svc), http.MethodPut, "/vehicles/9", jsonBody(t, map[string]any{"make": "BMW"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, "BMW", got.Make)
}

func TestSetPrimaryVehicle(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "unknown vehicle", err: fmt.Errorf("service.VehicleRegistry.SetPrimary: %w", domain.ErrNotFound), status: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockVehicleServicer{
				setPrimary: func(_ context.Context, id int64) (domain.Vehicle, error) {
					return domain.Vehicle{ID: id, IsPrimary: true}, tc.err
				},
			}

			rec := serve(vehiclesHandler(svc), http.MethodPost, "/vehicles/9/primary", nil)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestDeleteVehicle_204(t *testing.T) {
	deleted := int64(0)
	svc := &mockVehicleServicer{
		delete: func(_ context.Context, id int64) error {
			deleted = id
			return nil
		},
	}

	rec := serve(vehiclesHandler(svc), http.MethodDelete, "/vehicles/9", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(9), deleted)
}

func TestGetVehicle_404(t *testing.T) {
	svc := &mockVehicleServicer{
		getByID: func(_ context.Context, _ int64) (domain.Vehicle, error) { return domain.Vehicle{}, domain.ErrNotFound },
	}

	rec := serve(vehiclesHandler(svc), http.MethodGet, "/vehicles/9", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "vehicle not found", decodeError(t, rec).Message)
}
