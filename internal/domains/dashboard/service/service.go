package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"

	"cleanbook/infras/otel"
	bookingModel "cleanbook/internal/domains/booking/model"
	bookingDto "cleanbook/internal/domains/booking/model/dto"
	bookingRepo "cleanbook/internal/domains/booking/repository"
	"cleanbook/internal/domains/dashboard/model/dto"
	userModel "cleanbook/internal/domains/user/model"
	userRepo "cleanbook/internal/domains/user/repository"
	userService "cleanbook/internal/domains/user/service"
	"cleanbook/shared/constant"
	gDto "cleanbook/shared/dto"
	"cleanbook/shared/timezone"

	"golang.org/x/sync/errgroup"
)

type Dashboard interface {
	Get(ctx context.Context) (dto.DashboardResponse, error)
}

type serviceImpl struct {
	bookingRepo bookingRepo.Booking
	userRepo    userRepo.User
	users       userService.User
	otel        otel.Otel
}

func New(bookingRepo bookingRepo.Booking, userRepo userRepo.User, users userService.User, otel otel.Otel) Dashboard {
	return &serviceImpl{
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
		users:       users,
		otel:        otel,
	}
}

// Get resolves the caller's role and builds the dashboard for it.
func (s *serviceImpl) Get(ctx context.Context) (res dto.DashboardResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	tokenRole, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	res.Role = s.users.ResolveRole(ctx, userID, tokenRole)

	switch res.Role {
	case constant.RoleAdmin:
		res.Admin, err = s.admin(ctx)
	case constant.RoleCleaner:
		res.Cleaner, err = s.cleaner(ctx, userID)
	default:
		res.Customer, err = s.customer(ctx, userID)
	}

	return res, err
}

func (s *serviceImpl) customer(ctx context.Context, userID string) (*dto.CustomerDashboard, error) {
	var (
		res dto.CustomerDashboard
		g   errgroup.Group
	)

	g.Go(func() (err error) {
		res.Upcoming, err = s.upcoming(ctx, bookingModel.FieldCustomerID, userID)

		return err
	})

	g.Go(func() (err error) {
		res.TotalBookings, err = s.bookingRepo.Count(ctx, ownedBy(bookingModel.FieldCustomerID, userID))
		if err != nil {
			return fmt.Errorf("failed to count bookings: %w", err)
		}

		return nil
	})

	g.Go(func() (err error) {
		filter := ownedBy(bookingModel.FieldCustomerID, userID,
			eq(bookingModel.FieldPaymentStatus, bookingModel.PaymentStatusPaid))

		res.TotalSpent, err = s.bookingRepo.Sum(ctx, bookingModel.FieldTotal, filter)
		if err != nil {
			return fmt.Errorf("failed to sum spending: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &res, nil
}

func (s *serviceImpl) cleaner(ctx context.Context, userID string) (*dto.CleanerDashboard, error) {
	var (
		res dto.CleanerDashboard
		g   errgroup.Group
	)

	completed := ownedBy(bookingModel.FieldCleanerID, userID, eq(bookingModel.FieldStatus, bookingModel.StatusCompleted))

	g.Go(func() (err error) {
		res.UpcomingJobs, err = s.upcoming(ctx, bookingModel.FieldCleanerID, userID)

		return err
	})

	g.Go(func() (err error) {
		res.CompletedJobs, err = s.bookingRepo.Count(ctx, completed)
		if err != nil {
			return fmt.Errorf("failed to count completed jobs: %w", err)
		}

		return nil
	})

	g.Go(func() (err error) {
		res.Earnings, err = s.bookingRepo.Sum(ctx, bookingModel.FieldTotal, completed)
		if err != nil {
			return fmt.Errorf("failed to sum earnings: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &res, nil
}

func (s *serviceImpl) admin(ctx context.Context) (*dto.AdminDashboard, error) {
	var (
		res dto.AdminDashboard
		g   errgroup.Group
	)

	g.Go(func() (err error) {
		res.BookingsByStatus, err = s.bookingRepo.CountBy(ctx, bookingModel.FieldStatus, gDto.FilterGroup{})
		if err != nil {
			return fmt.Errorf("failed to count bookings by status: %w", err)
		}

		if res.BookingsByStatus == nil {
			res.BookingsByStatus = map[string]int{}
		}

		for _, status := range bookingModel.Statuses() {
			if _, ok := res.BookingsByStatus[status]; !ok {
				res.BookingsByStatus[status] = 0
			}
		}

		return nil
	})

	g.Go(func() (err error) {
		filter := gDto.FilterGroup{
			Filters:  []any{eq(bookingModel.FieldPaymentStatus, bookingModel.PaymentStatusPaid)},
			Operator: gDto.FilterGroupOperatorAnd,
		}

		res.Revenue, err = s.bookingRepo.Sum(ctx, bookingModel.FieldTotal, filter)
		if err != nil {
			return fmt.Errorf("failed to sum revenue: %w", err)
		}

		return nil
	})

	g.Go(func() (err error) {
		res.UsersByRole, err = s.userRepo.CountBy(ctx, userModel.FieldRole, gDto.FilterGroup{})
		if err != nil {
			return fmt.Errorf("failed to count users by role: %w", err)
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &res, nil
}

// upcoming lists the next open bookings from today on, soonest first.
func (s *serviceImpl) upcoming(ctx context.Context, field, userID string) ([]bookingDto.BookingResponse, error) {
	filter := ownedBy(field, userID,
		gDto.Filter{
			Field:    bookingModel.FieldStatus,
			Value:    []string{bookingModel.StatusPending, bookingModel.StatusConfirmed},
			Operator: gDto.FilterOperatorIn,
			Table:    bookingModel.TableName,
		},
		gDto.Filter{
			Field:    bookingModel.FieldScheduledDate,
			Value:    timezone.Now().Format(constant.DateOnlyFormat),
			Operator: gDto.FilterOperatorGreaterEq,
			Table:    bookingModel.TableName,
		},
	)

	params := gDto.QueryParams{
		Page:    1,
		Limit:   dto.UpcomingLimit,
		SortBy:  bookingModel.FieldScheduledDate,
		SortDir: gDto.SortDirAsc,
	}

	models, err := s.bookingRepo.GetAll(ctx, params, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming bookings: %w", err)
	}

	res := make([]bookingDto.BookingResponse, len(models))
	for i, mod := range models {
		res[i].FromModel(mod)
	}

	return res, nil
}

func eq(field string, value any) gDto.Filter {
	return gDto.Filter{Field: field, Value: value, Operator: gDto.FilterOperatorEq, Table: bookingModel.TableName}
}

func ownedBy(field, userID string, extra ...gDto.Filter) gDto.FilterGroup {
	filters := []any{eq(field, userID)}
	for _, f := range extra {
		filters = append(filters, f)
	}

	return gDto.FilterGroup{Filters: filters, Operator: gDto.FilterGroupOperatorAnd}
}
