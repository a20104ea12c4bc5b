package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/profile"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	migrator func(command string, args ...string) error
	tx       core.Transactor
	validate *validator.Validate
	users    *user.Service
	profiles *profile.Service
	courses  *course.Service
	out      io.Writer
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	w := cli.out
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintf(w, format, args...)
}

func (cli *commandLine) printUsage() {
	cli.printf("Usage:\n")
	cli.printf("  adduser -email EMAIL -name NAME [-role student|teacher|admin] [-grade GRADE] [-department DEPT] - create a user, the password is prompted\n")
	cli.printf("  resetpassword -email EMAIL - reset a user's password, the password is prompted\n")
	cli.printf("  addcourse -code CODE -name NAME -department DEPT -teacher EMAIL [-credits N] - create a course\n")
	cli.printf("  enroll -course CODE -student EMAIL -term TERM - enroll a student in a course\n")
	cli.printf("  migrate COMMAND [ARGS...] - run a goose migration command (up, down, status, ...)\n")
}

// readPassword prompts for a password, errHelp when none is typed.
func (cli *commandLine) readPassword(fs *flag.FlagSet) (string, error) {
	cli.printf("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.printf("\n")
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", string(user.RoleAdmin), "The user's role.")
	addUserGrade := addUserCmd.String("grade", "", "The student's grade level.")
	addUserDept := addUserCmd.String("department", "", "The staff member's department.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ContinueOnError)
	addCourseCode := addCourseCmd.String("code", "", "The course code, e.g. BIO11.")
	addCourseName := addCourseCmd.String("name", "", "The course name.")
	addCourseDept := addCourseCmd.String("department", "", "The department teaching the course.")
	addCourseTeacher := addCourseCmd.String("teacher", "", "The teacher's email.")
	addCourseCredits := addCourseCmd.Int("credits", 0, "The course credits.")

	enrollCmd := flag.NewFlagSet("enroll", flag.ContinueOnError)
	enrollCourse := enrollCmd.String("course", "", "The course code.")
	enrollStudent := enrollCmd.String("student", "", "The student's email.")
	enrollTerm := enrollCmd.String("term", "", "The term, e.g. 2026-T1.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(user.SignUp{
			Email:      *addUserEmail,
			Password:   pwd,
			FullName:   *addUserName,
			Role:       user.Role(*addUserRole),
			GradeLevel: *addUserGrade,
			Department: *addUserDept,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCourseCode == "" || *addCourseName == "" || *addCourseTeacher == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		return cli.addCourse(*addCourseTeacher, course.NewCourse{
			Code:       *addCourseCode,
			Name:       *addCourseName,
			Department: *addCourseDept,
			Credits:    *addCourseCredits,
		})

	case "enroll":
		if err := enrollCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *enrollCourse == "" || *enrollStudent == "" || *enrollTerm == "" {
			enrollCmd.Usage()
			return errHelp
		}
		return cli.enroll(*enrollCourse, *enrollStudent, *enrollTerm)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
