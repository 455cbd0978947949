package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"cleanbook/infras/otel/mocks"
	bookingMocks "cleanbook/internal/domains/booking/mocks"
	bookingModel "cleanbook/internal/domains/booking/model"
	"cleanbook/internal/domains/dashboard/service"
	userMocks "cleanbook/internal/domains/user/mocks"
	userModel "cleanbook/internal/domains/user/model"
	userServiceMocks "cleanbook/internal/domains/user/service/mocks"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
)

type fixture struct {
	bookingRepo *bookingMocks.MockBooking
	userRepo    *userMocks.MockUser
	users       *userServiceMocks.MockUser
	svc         service.Dashboard
}

func newFixture(t *testing.T) fixture {
	ctrl := gomock.NewController(t)

	f := fixture{
		bookingRepo: bookingMocks.NewMockBooking(ctrl),
		userRepo:    userMocks.NewMockUser(ctrl),
		users:       userServiceMocks.NewMockUser(ctrl),
	}

	f.svc = service.New(f.bookingRepo, f.userRepo, f.users, mocks.NewOtel())

	return f
}

func userCtx(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func TestDashboardService_Customer(t *testing.T) {
	f := newFixture(t)

	f.users.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.RoleCustomer).Return(constant.RoleCustomer)
	f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]bookingModel.Booking, error) {
			assert.Equal(t, bookingModel.FieldScheduledDate, params.SortBy)
			assert.Equal(t, gDto.SortDirAsc, params.SortDir)

			return []bookingModel.Booking{{ID: "b-1", CustomerID: "u-1"}}, nil
		})
	f.bookingRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(4, nil)
	f.bookingRepo.EXPECT().Sum(gomock.Any(), bookingModel.FieldTotal, gomock.Any()).Return(decimal.RequireFromString("320.50"), nil)

	res, err := f.svc.Get(userCtx("u-1", constant.RoleCustomer))
	assert.NoError(t, err)
	assert.Equal(t, constant.RoleCustomer, res.Role)
	assert.Nil(t, res.Admin)
	assert.Nil(t, res.Cleaner)
	assert.Len(t, res.Customer.Upcoming, 1)
	assert.Equal(t, 4, res.Customer.TotalBookings)
	assert.Equal(t, "320.5", res.Customer.TotalSpent.String())
}

func TestDashboardService_Cleaner(t *testing.T) {
	f := newFixture(t)

	f.users.EXPECT().ResolveRole(gomock.Any(), "c-1", constant.RoleCustomer).Return(constant.RoleCleaner)
	f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	f.bookingRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(12, nil)
	f.bookingRepo.EXPECT().Sum(gomock.Any(), bookingModel.FieldTotal, gomock.Any()).Return(decimal.NewFromInt(1500), nil)

	res, err := f.svc.Get(userCtx("c-1", constant.RoleCustomer))
	assert.NoError(t, err)
	assert.Equal(t, constant.RoleCleaner, res.Role)
	assert.Empty(t, res.Cleaner.UpcomingJobs)
	assert.Equal(t, 12, res.Cleaner.CompletedJobs)
	assert.Equal(t, "1500", res.Cleaner.Earnings.String())
}

func TestDashboardService_Admin(t *testing.T) {
	f := newFixture(t)

	f.users.EXPECT().ResolveRole(gomock.Any(), "a-1", constant.RoleAdmin).Return(constant.RoleAdmin)
	f.bookingRepo.EXPECT().CountBy(gomock.Any(), bookingModel.FieldStatus, gomock.Any()).
		Return(map[string]int{bookingModel.StatusPending: 3, bookingModel.StatusCompleted: 9}, nil)
	f.bookingRepo.EXPECT().Sum(gomock.Any(), bookingModel.FieldTotal, gomock.Any()).Return(decimal.RequireFromString("2045.10"), nil)
	f.userRepo.EXPECT().CountBy(gomock.Any(), userModel.FieldRole, gomock.Any()).
		Return(map[string]int{constant.RoleCustomer: 40, constant.RoleCleaner: 6, constant.RoleAdmin: 1}, nil)

	res, err := f.svc.Get(userCtx("a-1", constant.RoleAdmin))
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{
		bookingModel.StatusPending:   3,
		bookingModel.StatusConfirmed: 0,
		bookingModel.StatusCompleted: 9,
		bookingModel.StatusCancelled: 0,
	}, res.Admin.BookingsByStatus)
	assert.Equal(t, "2045.1", res.Admin.Revenue.String())
	assert.Equal(t, 40, res.Admin.UsersByRole[constant.RoleCustomer])
}

func TestDashboardService_Error(t *testing.T) {
	f := newFixture(t)

	f.users.EXPECT().ResolveRole(gomock.Any(), "u-1", constant.Empty).Return(constant.RoleCustomer)
	f.bookingRepo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	f.bookingRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errors.New("db down")).AnyTimes()
	f.bookingRepo.EXPECT().Sum(gomock.Any(), gomock.Any(), gomock.Any()).Return(decimal.Zero, nil).AnyTimes()

	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "u-1")

	_, err := f.svc.Get(ctx)
	assert.ErrorContains(t, err, "failed to count bookings")
}
