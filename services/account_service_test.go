package services

import (
	"log/slog"
	"pajal/auth"
	"pajal/domain"
	"pajal/errors"
	"pajal/mocks"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	testHasher = auth.NewHasher(auth.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	now        = time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
)

func newService(t *testing.T) (*AccountService, *mocks.MockClassRoster, *mocks.MockIStateRepository) {
	ctrl := gomock.NewController(t)
	roster := mocks.NewMockClassRoster(ctrl)
	repo := mocks.NewMockIStateRepository(ctrl)
	svc := NewAccountService(slog.Default(), testHasher, repo, roster)

	password, err := testHasher.Hash(auth.DefaultStudentPassword)
	require.NoError(t, err)
	svc.Replace([]domain.UserAccount{
		{ID: "adm", Name: "Administrator", Username: domain.AdminUsername, Role: domain.Administrator, State: domain.Active, PasswordHash: password},
		{ID: "lec", Name: "Ada Lovelace", Username: "ada", Role: domain.Lecturer, NimNip: "198001", State: domain.Active, PasswordHash: password},
		{ID: "stu", Name: "Budi", Username: "budi", Role: domain.Student, NimNip: "2024001", ClassType: lo.ToPtr("SK1B"),
			State: domain.Active, RegistrationDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), PasswordHash: password},
	}, nil)
	return svc, roster, repo
}

func TestAccountService_Register(t *testing.T) {
	svc, _, _ := newService(t)

	t.Run("should reject identities already used as username or name", func(t *testing.T) {
		req := require.New(t)
		_, err := svc.Register("  ADA lovelace ", now)
		req.ErrorIs(err, errors.ErrUsernameTaken)
		req.EqualError(err, "Username ini sudah digunakan atau sama dengan nama pengguna lain.")
	})

	t.Run("should reject short usernames", func(t *testing.T) {
		req := require.New(t)
		_, err := svc.Register(" ab ", now)
		req.ErrorIs(err, errors.ErrUsernameTooShort)
		req.EqualError(err, "Username minimal 3 karakter.")
	})

	t.Run("should create an incomplete student and log it in", func(t *testing.T) {
		req := require.New(t)
		user, err := svc.Register(" citra ", now)
		req.NoError(err)
		req.Equal("citra", user.Username)
		req.Equal("citra", user.Name)
		req.Equal(domain.Student, user.Role)
		req.Equal(domain.Incomplete, user.State)
		req.Equal(now, user.RegistrationDate)
		req.Equal([]string{"citra"}, svc.LoginHistory())

		logged, err := svc.Login("CITRA", auth.DefaultStudentPassword, now)
		req.NoError(err)
		req.Equal(user.ID, logged.ID)
	})
}

func TestAccountService_Login(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newService(t)

	// Wrong password
	_, err := svc.Login("budi", "salah", now)
	req.ErrorIs(err, errors.ErrInvalidCredentials)

	// The cohort advances on login: registered Feb 2024, now Aug 2024 is semester 2
	user, err := svc.Login("budi", auth.DefaultStudentPassword, now)
	req.NoError(err)
	req.Equal("SK2B", user.Cohort())

	// Administrators are not recorded in the history
	_, err = svc.Login(domain.AdminUsername, auth.DefaultStudentPassword, now)
	req.NoError(err)
	req.Equal([]string{"Budi"}, svc.LoginHistory())
}

func TestAccountService_Login_History_Keeps_Five(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newService(t)

	for _, name := range []string{"satu", "dua", "tiga", "empat", "lima", "enam"} {
		_, err := svc.Register(name, now)
		req.NoError(err)
	}

	req.Equal([]string{"enam", "lima", "empat", "tiga", "dua"}, svc.LoginHistory())
}

func TestAccountService_Login_Suspended(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newService(t)

	_, err := svc.ToggleSuspend("adm", "lec")
	req.NoError(err)
	req.True(svc.SuspendedLecturers().Has("ada lovelace"))

	_, err = svc.Login("ada", auth.DefaultStudentPassword, now)
	req.ErrorIs(err, errors.ErrAccountSuspended)

	// Toggling again restores the account
	user, err := svc.ToggleSuspend("adm", "lec")
	req.NoError(err)
	req.Equal(domain.Active, user.State)
}

func TestAccountService_UpdateProfile(t *testing.T) {
	t.Run("should require a cohort when a student finishes setup", func(t *testing.T) {
		req := require.New(t)
		svc, _, _ := newService(t)
		user, err := svc.Register("citra", now)
		req.NoError(err)

		_, err = svc.UpdateProfile(user.ID, domain.ProfileInput{Name: "Citra", Username: "citra", NimNip: "2024002"})
		req.EqualError(err, "Kategori Kelas wajib diisi untuk mahasiswa.")

		updated, err := svc.UpdateProfile(user.ID, domain.ProfileInput{Name: "Citra", Username: "citra", NimNip: "2024002", ClassType: lo.ToPtr("sk1a")})
		req.NoError(err)
		req.Equal(domain.Active, updated.State)
		req.Equal("SK1A", updated.Cohort())
	})

	t.Run("should keep the administrator username", func(t *testing.T) {
		req := require.New(t)
		svc, _, _ := newService(t)
		_, err := svc.UpdateProfile("adm", domain.ProfileInput{Name: "Admin", Username: "root"})
		req.ErrorIs(err, errors.ErrAdminUsernameFixed)
		req.EqualError(err, "Username admin tidak dapat diubah.")
	})

	t.Run("should reject taken identities", func(t *testing.T) {
		req := require.New(t)
		svc, _, _ := newService(t)

		_, err := svc.UpdateProfile("stu", domain.ProfileInput{Name: "Budi", Username: "ADA", NimNip: "2024001", ClassType: lo.ToPtr("SK1B")})
		req.EqualError(err, "Username telah digunakan oleh pengguna lain.")

		_, err = svc.UpdateProfile("stu", domain.ProfileInput{Name: "ada lovelace", Username: "budi", NimNip: "2024001", ClassType: lo.ToPtr("SK1B")})
		req.EqualError(err, "Nama Lengkap telah digunakan oleh pengguna lain.")

		_, err = svc.UpdateProfile("stu", domain.ProfileInput{Name: "Budi", Username: "budi", NimNip: "198001", ClassType: lo.ToPtr("SK1B")})
		req.EqualError(err, "NIM/NIP ini sudah digunakan oleh pengguna lain.")
	})

	t.Run("should follow a lecturer rename into the sessions", func(t *testing.T) {
		req := require.New(t)
		svc, roster, _ := newService(t)
		roster.EXPECT().RenameLecturer("Ada Lovelace", "Ada King").Return(2).Times(1)

		updated, err := svc.UpdateProfile("lec", domain.ProfileInput{Name: "Ada King", Username: "ada", NimNip: "198001", ClassType: lo.ToPtr("SK1A")})
		req.NoError(err)
		req.Equal("Ada King", updated.Name)
		req.Nil(updated.ClassType)
	})

	t.Run("should give a lecturer finishing setup the default password", func(t *testing.T) {
		req := require.New(t)
		svc, _, _ := newService(t)
		users := svc.All()
		users = append(users, domain.UserAccount{ID: "new", Name: "Grace", Username: "grace", Role: domain.Lecturer, State: domain.Incomplete})
		svc.Replace(users, nil)

		_, err := svc.UpdateProfile("new", domain.ProfileInput{Name: "Grace", Username: "grace", NimNip: "198002"})
		req.NoError(err)

		_, err = svc.Login("grace", auth.DefaultLecturerPassword, now)
		req.NoError(err)
	})
}

func TestAccountService_UpdateByAdmin(t *testing.T) {
	req := require.New(t)
	svc, roster, _ := newService(t)

	_, err := svc.UpdateByAdmin("stu", "lec", domain.ProfileInput{Name: "X", Username: "xyz"})
	req.ErrorIs(err, errors.ErrAccessDenied)
	req.EqualError(err, "Akses ditolak.")

	_, err = svc.UpdateByAdmin("adm", "stu", domain.ProfileInput{Name: "Budi", Username: "ada", NimNip: "2024001"})
	req.EqualError(err, `Username "ada" sudah digunakan.`)

	_, err = svc.UpdateByAdmin("adm", "stu", domain.ProfileInput{Name: "Ada Lovelace", Username: "budi", NimNip: "2024001"})
	req.EqualError(err, `Nama "Ada Lovelace" sudah digunakan.`)

	_, err = svc.UpdateByAdmin("adm", "stu", domain.ProfileInput{Name: "Budi", Username: "budi", NimNip: "198001"})
	req.EqualError(err, `NIM/NIP "198001" sudah digunakan.`)

	roster.EXPECT().RenameLecturer("Ada Lovelace", "Ada King").Return(1).Times(1)
	updated, err := svc.UpdateByAdmin("adm", "lec", domain.ProfileInput{Name: "Ada King", Username: "ada", NimNip: "198001"})
	req.NoError(err)
	req.Equal("Ada King", updated.Name)
}

func TestAccountService_Delete_Lecturer_Cascades(t *testing.T) {
	req := require.New(t)
	svc, roster, _ := newService(t)

	// Given no repository call is expected
	roster.EXPECT().PurgeLecturer("Ada Lovelace").Return([]string{"c1", "c2"}).Times(1)

	// When
	deleted, err := svc.Delete("adm", "lec")

	// Then
	req.NoError(err)
	req.Equal("lec", deleted.ID)
	_, found := svc.Get("lec")
	req.False(found)
}

func TestAccountService_SetProfilePicture(t *testing.T) {
	req := require.New(t)
	svc, _, repo := newService(t)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

	_, err := svc.SetProfilePicture("stu", []byte("just some text"))
	req.ErrorIs(err, errors.ErrInvalidPicture)

	repo.EXPECT().SavePicture("stu", png).Return(nil).Times(1)
	user, err := svc.SetProfilePicture("stu", png)
	req.NoError(err)
	req.Equal("/users/stu/picture", lo.FromPtr(user.ProfilePic))
}

func TestAccountService_AdvanceCohorts(t *testing.T) {
	req := require.New(t)
	svc, _, _ := newService(t)

	req.Equal(1, svc.AdvanceCohorts(now))
	req.Equal(0, svc.AdvanceCohorts(now))
	user, _ := svc.Get("stu")
	req.Equal("SK2B", user.Cohort())
}
