package handler

import (
	"errors"
	"net/http"
	"reflect"

	"ferrepos/internal/apierror"
	"ferrepos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindQueryAndValidate binds query-string filters and runs validator tags.
func bindQueryAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query parameters: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathUUID parses a :param path segment as a UUID, writing the 400 itself.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service sentinels onto HTTP statuses. Anything not
// recognized is treated as a domain rejection rather than a server fault;
// unexpected faults reach the client as 500 through c.Error.
func respondError(c *gin.Context, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrNoInventoryRecord),
		errors.Is(err, service.ErrAlreadyAnnulled),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrInstallmentsStarted),
		errors.Is(err, service.ErrRegisterAlreadyOpen),
		errors.Is(err, service.ErrUserSessionOpen),
		errors.Is(err, service.ErrNoOpenSession),
		errors.Is(err, service.ErrNoActiveSession),
		errors.Is(err, service.ErrRegisterBusy),
		errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrTransferNotPending),
		errors.Is(err, service.ErrAlreadyReceived),
		errors.Is(err, service.ErrOrderCancelled),
		errors.Is(err, service.ErrExceedsOrdered):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNotOwner):
		status = http.StatusForbidden
	}
	c.JSON(status, apierror.New(err.Error()))
}
