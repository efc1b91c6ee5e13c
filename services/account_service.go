package services

import (
	"fmt"
	"log/slog"
	"pajal/auth"
	"pajal/contract"
	"pajal/domain"
	"pajal/domain/mimetypes"
	"pajal/errors"
	"pajal/repositories"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const loginHistorySize = 5

// AccountService owns the user accounts and the login history.
type AccountService struct {
	mu         sync.RWMutex
	log        *slog.Logger
	hasher     auth.Hasher
	repository repositories.IStateRepository
	roster     contract.ClassRoster
	users      []domain.UserAccount
	history    []string
}

func NewAccountService(
	log *slog.Logger,
	hasher auth.Hasher,
	repository repositories.IStateRepository,
	roster contract.ClassRoster,
) *AccountService {
	return &AccountService{
		log:        log,
		hasher:     hasher,
		repository: repository,
		roster:     roster,
	}
}

// Replace loads stored accounts and login history.
func (s *AccountService) Replace(users []domain.UserAccount, history []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]domain.UserAccount(nil), users...)
	s.history = append([]string(nil), history...)
}

func (s *AccountService) All() []domain.UserAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UserAccount(nil), s.users...)
}

func (s *AccountService) LoginHistory() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.history...)
}

func (s *AccountService) Get(id string) (domain.UserAccount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Find(s.users, func(u domain.UserAccount) bool { return u.ID == id })
}

// SuspendedLecturers returns the normalised names of suspended lecturers.
func (s *AccountService) SuspendedLecturers() domain.IDSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := domain.NewIDSet()
	for _, u := range s.users {
		if u.Role == domain.Lecturer && u.IsSuspended() {
			names.Add(domain.NormalizeName(u.Name))
		}
	}
	return names
}

// Register creates a student account named after its username and logs it in.
func (s *AccountService) Register(username string, now time.Time) (domain.UserAccount, error) {
	trimmed := strings.TrimSpace(username)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.identityTaken(strings.ToLower(trimmed), "") {
		return domain.UserAccount{}, errors.Reject(errors.ErrUsernameTaken,
			"Username ini sudah digunakan atau sama dengan nama pengguna lain.")
	}
	if len([]rune(trimmed)) < 3 {
		return domain.UserAccount{}, errors.Reject(errors.ErrUsernameTooShort, "Username minimal 3 karakter.")
	}

	hash, err := s.hasher.Hash(auth.DefaultStudentPassword)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("hashing default password: %w", err)
	}
	user := domain.UserAccount{
		ID:               uuid.NewString(),
		Name:             trimmed,
		Username:         trimmed,
		Role:             domain.Student,
		State:            domain.Incomplete,
		RegistrationDate: now,
		PasswordHash:     hash,
	}
	s.users = append(s.users, user)
	s.recordLogin(user)
	s.log.Info("Student registered", "user", user.ID)
	return user, nil
}

// Login checks credentials, refuses suspended accounts and brings the
// student's cohort up to date.
func (s *AccountService) Login(username, password string, now time.Time) (domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, index, found := lo.FindIndexOf(s.users, func(u domain.UserAccount) bool {
		return strings.EqualFold(u.Username, strings.TrimSpace(username))
	})
	if !found {
		return domain.UserAccount{}, errors.Reject(errors.ErrInvalidCredentials, "Username atau password salah.")
	}
	user := s.users[index]
	match, err := s.hasher.Compare(password, user.PasswordHash)
	if err != nil || !match {
		return domain.UserAccount{}, errors.Reject(errors.ErrInvalidCredentials, "Username atau password salah.")
	}
	if user.IsSuspended() {
		return domain.UserAccount{}, errors.Reject(errors.ErrAccountSuspended,
			"Akun Anda telah ditangguhkan. Silakan hubungi administrator.")
	}

	user = domain.AdvanceCohort(user, now)
	s.users[index] = user
	s.recordLogin(user)
	return user, nil
}

// recordLogin keeps the last distinct non-administrator names, newest first.
func (s *AccountService) recordLogin(user domain.UserAccount) {
	if user.Role == domain.Administrator || lo.Contains(s.history, user.Name) {
		return
	}
	s.history = append([]string{user.Name}, s.history...)
	if len(s.history) > loginHistorySize {
		s.history = s.history[:loginHistorySize]
	}
}

// UpdateProfile is the self-service profile update, also used to finish
// the first-time setup.
func (s *AccountService) UpdateProfile(id string, in domain.ProfileInput) (domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, index, found := lo.FindIndexOf(s.users, func(u domain.UserAccount) bool { return u.ID == id })
	if !found {
		return domain.UserAccount{}, errors.Reject(errors.ErrUserNotFound, "Pengguna tidak ditemukan.")
	}
	original := s.users[index]
	newSetup := original.State == domain.Incomplete

	in.ClassType = cohortOrNil(in.ClassType)
	if original.Role == domain.Lecturer {
		in.ClassType = nil
	}
	if newSetup && original.Role == domain.Student && lo.FromPtr(in.ClassType) == "" {
		return domain.UserAccount{}, errors.Reject(errors.ErrCohortRequired, "Kategori Kelas wajib diisi untuk mahasiswa.")
	}
	username := strings.TrimSpace(in.Username)
	name := strings.TrimSpace(in.Name)
	nimNip := strings.TrimSpace(in.NimNip)

	if original.Role == domain.Administrator && strings.ToLower(username) != domain.AdminUsername {
		return domain.UserAccount{}, errors.Reject(errors.ErrAdminUsernameFixed, "Username admin tidak dapat diubah.")
	}
	if err := domain.ValidateProfile(domain.ProfileInput{Name: name, Username: username, NimNip: nimNip, ClassType: in.ClassType}); err != nil {
		return domain.UserAccount{}, err
	}
	if s.identityTaken(strings.ToLower(username), id) {
		return domain.UserAccount{}, errors.Reject(errors.ErrUsernameTaken, "Username telah digunakan oleh pengguna lain.")
	}
	if original.Role != domain.Administrator && s.identityTaken(strings.ToLower(name), id) {
		return domain.UserAccount{}, errors.Reject(errors.ErrNameTaken, "Nama Lengkap telah digunakan oleh pengguna lain.")
	}
	if nimNip != "" && nimNip != original.NimNip && s.nimNipTaken(nimNip, id) {
		return domain.UserAccount{}, errors.Reject(errors.ErrNimNipTaken, "NIM/NIP ini sudah digunakan oleh pengguna lain.")
	}

	updated := original
	updated.Name = name
	updated.Username = username
	updated.NimNip = nimNip
	updated.ClassType = in.ClassType
	if newSetup && original.Role == domain.Lecturer {
		hash, err := s.hasher.Hash(auth.DefaultLecturerPassword)
		if err != nil {
			return domain.UserAccount{}, fmt.Errorf("hashing default password: %w", err)
		}
		updated.PasswordHash = hash
	}
	return s.commit(index, original, updated), nil
}

// UpdateByAdmin lets an administrator edit any account.
func (s *AccountService) UpdateByAdmin(actorID, id string, in domain.ProfileInput) (domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isAdmin(actorID) {
		return domain.UserAccount{}, errors.Reject(errors.ErrAccessDenied, "Akses ditolak.")
	}
	_, index, found := lo.FindIndexOf(s.users, func(u domain.UserAccount) bool { return u.ID == id })
	if !found {
		return domain.UserAccount{}, errors.Reject(errors.ErrUserNotFound, "Pengguna tidak ditemukan.")
	}
	in.ClassType = cohortOrNil(in.ClassType)
	if err := domain.ValidateProfile(in); err != nil {
		return domain.UserAccount{}, err
	}

	others := lo.Filter(s.users, func(u domain.UserAccount, _ int) bool { return u.ID != id })
	if lo.SomeBy(others, func(u domain.UserAccount) bool { return strings.EqualFold(u.Username, in.Username) }) {
		return domain.UserAccount{}, errors.Reject(errors.ErrUsernameTaken, "Username \"%s\" sudah digunakan.", in.Username)
	}
	if lo.SomeBy(others, func(u domain.UserAccount) bool { return strings.EqualFold(u.Name, in.Name) }) {
		return domain.UserAccount{}, errors.Reject(errors.ErrNameTaken, "Nama \"%s\" sudah digunakan.", in.Name)
	}
	if in.NimNip != "" && lo.SomeBy(others, func(u domain.UserAccount) bool { return u.NimNip == in.NimNip }) {
		return domain.UserAccount{}, errors.Reject(errors.ErrNimNipTaken, "NIM/NIP \"%s\" sudah digunakan.", in.NimNip)
	}

	original := s.users[index]
	updated := original
	updated.Name = in.Name
	updated.Username = in.Username
	updated.NimNip = in.NimNip
	if original.Role == domain.Student {
		updated.ClassType = in.ClassType
	}
	return s.commit(index, original, updated), nil
}

// commit stores updated, follows a lecturer rename into the sessions and
// re-derives the account state.
func (s *AccountService) commit(index int, original, updated domain.UserAccount) domain.UserAccount {
	if updated.State != domain.Suspended {
		updated.State = updated.SetupState()
	}
	s.users[index] = updated
	if original.Name != updated.Name && original.Role == domain.Lecturer {
		renamed := s.roster.RenameLecturer(original.Name, updated.Name)
		s.log.Debug("Lecturer renamed in sessions", "user", updated.ID, "sessions", renamed)
	}
	return updated
}

// ToggleSuspend flips the suspension of an account.
func (s *AccountService) ToggleSuspend(actorID, id string) (domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isAdmin(actorID) {
		return domain.UserAccount{}, errors.Reject(errors.ErrAccessDenied, "Akses ditolak.")
	}
	_, index, found := lo.FindIndexOf(s.users, func(u domain.UserAccount) bool { return u.ID == id })
	if !found {
		return domain.UserAccount{}, errors.Reject(errors.ErrUserNotFound, "Pengguna tidak ditemukan.")
	}
	user := s.users[index]
	if user.IsSuspended() {
		user.State = user.SetupState()
	} else {
		user.State = domain.Suspended
	}
	s.users[index] = user
	s.log.Info("Account suspension toggled", "user", id, "state", user.State)
	return user, nil
}

// Delete removes an account. A lecturer's sessions go with it.
func (s *AccountService) Delete(actorID, id string) (domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isAdmin(actorID) {
		return domain.UserAccount{}, errors.Reject(errors.ErrAccessDenied, "Akses ditolak.")
	}
	user, index, found := lo.FindIndexOf(s.users, func(u domain.UserAccount) bool { return u.ID == id })
	if !found {
		return domain.UserAccount{}, errors.Reject(errors.ErrUserNotFound, "Pengguna tidak ditemukan.")
	}

	if user.Role == domain.Lecturer {
		removed := s.roster.PurgeLecturer(user.Name)
		s.log.Info("Lecturer sessions purged", "user", id, "sessions", len(removed))
	}
	s.users = append(s.users[:index], s.users[index+1:]...)
	return user, nil
}

// SetProfilePicture stores an image after sniffing its type.
func (s *AccountService) SetProfilePicture(id string, data []byte) (domain.UserAccount, error) {
	if _, ok := mimetypes.Picture(mimetype.Detect(data).String()); !ok {
		return domain.UserAccount{}, errors.Reject(errors.ErrInvalidPicture, "Format gambar tidak didukung.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, index, found := lo.FindIndexOf(s.users, func(u domain.UserAccount) bool { return u.ID == id })
	if !found {
		return domain.UserAccount{}, errors.Reject(errors.ErrUserNotFound, "Pengguna tidak ditemukan.")
	}
	if err := s.repository.SavePicture(id, data); err != nil {
		return domain.UserAccount{}, fmt.Errorf("saving picture: %w", err)
	}
	ref := fmt.Sprintf("/users/%s/picture", id)
	s.users[index].ProfilePic = &ref
	return s.users[index], nil
}

// ProfilePicture returns the stored image and its MIME type.
func (s *AccountService) ProfilePicture(id string) ([]byte, string, error) {
	data, err := s.repository.LoadPicture(id)
	if err != nil {
		return nil, "", err
	}
	return data, mimetype.Detect(data).String(), nil
}

// AdvanceCohorts applies the semester rollover to every student and
// returns how many tags changed.
func (s *AccountService) AdvanceCohorts(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for i, u := range s.users {
		advanced := domain.AdvanceCohort(u, now)
		if advanced.Cohort() != u.Cohort() {
			s.users[i] = advanced
			changed++
		}
	}
	return changed
}

func (s *AccountService) isAdmin(id string) bool {
	return lo.SomeBy(s.users, func(u domain.UserAccount) bool { return u.ID == id && u.Role == domain.Administrator })
}

// identityTaken compares a lowercased value against every username and
// display name, except those of the account excluded.
func (s *AccountService) identityTaken(value, excluded string) bool {
	return lo.SomeBy(s.users, func(u domain.UserAccount) bool {
		return u.ID != excluded && (strings.ToLower(u.Username) == value || strings.ToLower(u.Name) == value)
	})
}

func (s *AccountService) nimNipTaken(nimNip, excluded string) bool {
	return lo.SomeBy(s.users, func(u domain.UserAccount) bool { return u.ID != excluded && u.NimNip == nimNip })
}

func cohortOrNil(cohort *string) *string {
	if cohort == nil || strings.TrimSpace(*cohort) == "" {
		return nil
	}
	return lo.ToPtr(strings.ToUpper(strings.TrimSpace(*cohort)))
}
