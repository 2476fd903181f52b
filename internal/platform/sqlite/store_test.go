package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"hrrecords/internal/domain/auth"
	"hrrecords/internal/domain/hr"
	"hrrecords/internal/domain/permissions"
	"hrrecords/internal/domain/records"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func quietEngine(store *Store, opts ...permissions.Option) *permissions.Engine {
	opts = append(opts, permissions.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return permissions.NewEngine(store, permissions.DefaultRoleTable(), opts...)
}

func TestRecordRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	rec := records.New(records.SalaryIncrease, map[string]string{
		"employeeId": "000222",
		"startDate":  "2024-04-01",
		"newSalary":  "32000",
		"status":     "pending",
	})
	require.NoError(t, store.Insert(ctx, rec))

	got, err := store.Retrieve(ctx, records.SalaryIncrease, "000222")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, rec.Values(), got[0].Values())

	rec.SetValue("status", "approved")
	n, err := store.Update(ctx, rec)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	got, err = store.Retrieve(ctx, records.SalaryIncrease, "000222")
	require.NoError(t, err)
	status, _ := got[0].Value("status")
	require.Equal(t, "approved", status)

	missing := records.New(records.SalaryIncrease, map[string]string{
		"employeeId": "000222",
		"startDate":  "2030-01-01",
		"status":     "approved",
	})
	n, err = store.Update(ctx, missing)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRetrieveEmptyIsList(t *testing.T) {
	store := openTestStore(t)
	got, err := store.Retrieve(context.Background(), records.Termination, "999999")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestRetrieveMultipleOrdered(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, year := range []string{"2023", "2021", "2022"} {
		require.NoError(t, store.Insert(ctx, records.New(records.AnnualReview, map[string]string{
			"employeeId": "000333",
			"year":       year,
		})))
	}

	got, err := store.Retrieve(ctx, records.AnnualReview, "000333")
	require.NoError(t, err)
	require.Len(t, got, 3)
	var years []string
	for _, r := range got {
		y, _ := r.Value("year")
		years = append(years, y)
	}
	require.Equal(t, []string{"2021", "2022", "2023"}, years)
}

func TestPromotionGeneratedID(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Insert(ctx, records.New(records.Promotion, map[string]string{
		"employeeId": "000111",
		"newRole":    "2",
		"newSalary":  "40000",
		"startDate":  "2023-01-01",
	})))

	got, err := store.Retrieve(ctx, records.Promotion, "000111")
	require.NoError(t, err)
	require.Len(t, got, 1)
	id, ok := got[0].Value("promotionId")
	require.True(t, ok)
	require.Equal(t, "1", id)

	got[0].SetValue("newSalary", "42000")
	n, err := store.Update(ctx, got[0])
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestModifySelfCannotReachOtherEmployeesPromotion(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	for _, staff := range []string{"000001", "000002"} {
		require.NoError(t, store.Insert(ctx, records.New(records.Promotion, map[string]string{
			"employeeId": staff,
			"newRole":    "1",
			"newSalary":  "30000",
			"startDate":  "2024-01-01",
		})))
	}
	theirs, err := store.Retrieve(ctx, records.Promotion, "000002")
	require.NoError(t, err)
	require.Len(t, theirs, 1)
	theirID, _ := theirs[0].Value("promotionId")

	capability := permissions.Capability(records.Promotion, permissions.ActionModify, permissions.ScopeSelf)
	require.NoError(t, store.GrantToRole(ctx, permissions.RoleEmployee.Level, capability))
	svc := hr.NewService(store, quietEngine(store))
	actor := permissions.Actor{UserID: "emp1", StaffNo: "000001", Role: permissions.RoleEmployee}

	err = svc.Modify(ctx, actor, records.New(records.Promotion, map[string]string{
		"promotionId": theirID,
		"employeeId":  "000001",
		"newRole":     "3",
		"newSalary":   "90000",
		"startDate":   "2024-01-01",
	}))
	require.ErrorIs(t, err, hr.ErrRecordNotFound)

	theirs, err = store.Retrieve(ctx, records.Promotion, "000002")
	require.NoError(t, err)
	role, _ := theirs[0].Value("newRole")
	require.Equal(t, "1", role)

	mine, err := store.Retrieve(ctx, records.Promotion, "000001")
	require.NoError(t, err)
	mine[0].SetValue("newSalary", "31000")
	require.NoError(t, svc.Modify(ctx, actor, mine[0]))
}

func TestDepartmentOf(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Insert(ctx, records.New(records.Employee, map[string]string{
		"employeeId":    "000111",
		"employeeLogin": "msmith",
		"departmentId":  "2",
	})))

	dept, err := store.DepartmentOf(ctx, "000111")
	require.NoError(t, err)
	require.Equal(t, "2", dept)

	_, err = store.DepartmentOf(ctx, "000999")
	require.ErrorIs(t, err, permissions.ErrDepartmentNotFound)
}

func TestGrantsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.GrantToRole(ctx, 1, "records.employee.view.self"))
	require.NoError(t, store.GrantToRole(ctx, 1, "records.employee.view.self"))

	ok, err := store.IsGrantedToRole(ctx, permissions.RoleEmployee, "records.employee.view.self")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.IsGrantedToRole(ctx, permissions.RoleManager, "records.employee.view.self")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngineDepartmentShortCircuit(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Insert(ctx, records.New(records.Employee, map[string]string{
		"employeeId":    "000111",
		"employeeLogin": "msmith",
		"departmentId":  "2",
	})))
	require.NoError(t, store.GrantToDepartment(ctx, "2",
		permissions.Capability(records.SalaryIncrease, permissions.ActionModify, permissions.ScopeAny)))

	engine := quietEngine(store)
	actor := permissions.Actor{UserID: "msmith", StaffNo: "000111", Role: permissions.RoleManager}
	target := records.New(records.SalaryIncrease, map[string]string{
		"employeeId": "000111",
		"startDate":  "2024-04-01",
		"newSalary":  "32000",
		"status":     "pending",
	})

	d := engine.Decide(ctx, actor, permissions.ActionModify, target)
	require.True(t, d.Allowed)
	require.Equal(t, permissions.TierDepartment, d.Tier)
	require.Equal(t, "records.salaryincrease.modify.*", d.Capability)

	other := permissions.Actor{UserID: "jdoe", StaffNo: "000222", Role: permissions.RoleManager}
	require.False(t, engine.Authorize(ctx, other, permissions.ActionModify, target))
}

func TestServiceWorkflow(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.GrantToRole(ctx, permissions.RoleEmployee.Level,
		permissions.Capability(records.PersonalDetails, permissions.ActionView, permissions.ScopeSelf)))
	require.NoError(t, store.GrantToUser(ctx, "hradmin",
		permissions.Capability(records.PersonalDetails, permissions.ActionCreate, "")))

	svc := hr.NewService(store, quietEngine(store))
	admin := permissions.Actor{UserID: "hradmin", StaffNo: "000001", Role: permissions.RoleDirector}
	self := permissions.Actor{UserID: "jdoe", StaffNo: "000222", Role: permissions.RoleEmployee}

	rec := records.New(records.PersonalDetails, map[string]string{
		"employeeId":         "000222",
		"forename":           "Jane",
		"surname":            "Doe",
		"dateOfBirth":        "1990-02-28",
		"addressLine1":       "12 High Street",
		"addressTown":        "Leeds",
		"addressCounty":      "Yorkshire",
		"addressPostcode":    "LS1 4AB",
		"telNo":              "01131234567",
		"mobNo":              "07700900123",
		"emergencyContact":   "John Doe",
		"emergencyContactNo": "07700900456",
	})
	require.ErrorIs(t, svc.Create(ctx, self, rec), hr.ErrForbidden)
	require.NoError(t, svc.Create(ctx, admin, rec))

	got, err := svc.View(ctx, self, records.PersonalDetails, "000222")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.View(ctx, self, records.PersonalDetails, "000333")
	require.ErrorIs(t, err, hr.ErrForbidden)

	require.ErrorIs(t, svc.Modify(ctx, self, rec), hr.ErrForbidden)
}

func TestIdentity(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	hash, err := auth.HashPassword("Passw0rd")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, auth.User{ID: "msmith", PasswordHash: hash, HasSystemAccess: true}))
	require.NoError(t, store.Insert(ctx, records.New(records.Employee, map[string]string{
		"employeeId": "000111", "employeeLogin": "msmith", "departmentId": "2",
	})))
	require.NoError(t, store.Insert(ctx, records.New(records.InitialEmploymentDetails, map[string]string{
		"employeeId": "000111", records.FieldInitialRole: "1",
	})))

	user, err := store.FindUser(ctx, "msmith")
	require.NoError(t, err)
	require.Equal(t, "000111", user.StaffNo)
	require.True(t, user.HasSystemAccess)

	_, err = store.FindUser(ctx, "nobody")
	require.ErrorIs(t, err, auth.ErrUserNotFound)

	role, err := store.HighestRole(ctx, "000111")
	require.NoError(t, err)
	require.Equal(t, "1", role)

	for _, p := range []struct{ role, start string }{{"3", "2022-01-01"}, {"2", "2021-01-01"}} {
		require.NoError(t, store.Insert(ctx, records.New(records.Promotion, map[string]string{
			"employeeId": "000111", "newRole": p.role, "startDate": p.start,
		})))
	}
	role, err = store.HighestRole(ctx, "000111")
	require.NoError(t, err)
	require.Equal(t, "3", role, "latest promotion wins")

	svc := auth.NewService(store, permissions.DefaultRoleTable(), "secret", time.Hour)
	roles, err := svc.AvailableRoles(ctx, "msmith")
	require.NoError(t, err)
	require.Equal(t, []permissions.Role{permissions.RoleDirector, permissions.RoleEmployee}, roles)

	res, err := svc.Login(ctx, auth.LoginRequest{UserID: "msmith", Password: "Passw0rd", Role: "Director"})
	require.NoError(t, err)
	claims, err := auth.ParseToken("secret", res.Token)
	require.NoError(t, err)

	valid, err := svc.SessionValid(ctx, claims.UserID, claims.SessionID)
	require.NoError(t, err)
	require.True(t, valid)

	require.NoError(t, svc.Logout(ctx, claims.UserContext()))
	valid, err = svc.SessionValid(ctx, claims.UserID, claims.SessionID)
	require.NoError(t, err)
	require.False(t, valid)

	purged, err := svc.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)

	require.NoError(t, store.SetSystemAccess(ctx, "msmith", false))
	_, err = svc.AvailableRoles(ctx, "msmith")
	require.ErrorIs(t, err, auth.ErrSuspended)
}
