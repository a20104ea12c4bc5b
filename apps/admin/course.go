package main

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/akia2466/PMNTS-Lovable/core"
	"github.com/akia2466/PMNTS-Lovable/core/course"
	"github.com/akia2466/PMNTS-Lovable/core/user"
)

var (
	errNotATeacher = errors.New("the course teacher must be a teacher or an admin")
	errNotAStudent = errors.New("only students can be enrolled")
)

func (cli *commandLine) userByEmail(ctx context.Context, email string) (user.User, error) {
	return cli.users.GetByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (cli *commandLine) addCourse(teacherEmail string, nc course.NewCourse) error {
	ctx := context.Background()
	teacher, err := cli.userByEmail(ctx, teacherEmail)
	if err != nil {
		return err
	}
	if !teacher.IsStaff() {
		return errNotATeacher
	}
	nc.TeacherID = teacher.ID
	if err = nc.Validate(cli.validate); err != nil {
		return err
	}
	c, err := cli.courses.Create(ctx, nc)
	if err != nil {
		return err
	}
	cli.printf("created course %s %q (%s)\n", c.Code, c.Name, c.ID)
	return nil
}

func (cli *commandLine) enroll(code, studentEmail, term string) error {
	ctx := context.Background()
	student, err := cli.userByEmail(ctx, studentEmail)
	if err != nil {
		return err
	}
	if !student.IsStudent() {
		return errNotAStudent
	}

	courses, err := cli.courses.Query(ctx, course.QueryFilter{})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	var found *course.Course
	for i := range courses {
		if strings.EqualFold(courses[i].Code, code) {
			found = &courses[i]
			break
		}
	}
	if found == nil {
		return course.ErrNotFound
	}

	ne := course.NewEnrollment{CourseID: found.ID, StudentID: student.ID, Term: term}
	if err = ne.Validate(cli.validate); err != nil {
		return err
	}
	e, err := cli.courses.Enroll(ctx, ne)
	if err != nil {
		return err
	}
	cli.printf("enrolled %s in %s for %s (%s)\n", student.Email, found.Code, e.Term, e.ID)
	return nil
}
