package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Resource groups the operations served under /api/<Name>.
type Resource struct {
	Name       string
	Operations []Operation
}

// created, updated and deleted build the write operations every CRUD resource shares.
func created(procedure, noun string, params ...Param) Operation {
	return Operation{
		Method:    fiber.MethodPost,
		Path:      "/",
		Procedure: procedure,
		Params:    params,
		Shape:     ShapeMessage,
		Status:    fiber.StatusCreated,
		Message:   noun + " created successfully!",
	}
}

func updated(path, procedure, noun string, params ...Param) Operation {
	return Operation{
		Method:    fiber.MethodPut,
		Path:      path,
		Procedure: procedure,
		Params:    params,
		Shape:     ShapeMessage,
		Message:   noun + " updated successfully!",
	}
}

func deleted(path, procedure, noun string, params ...Param) Operation {
	return Operation{
		Method:    fiber.MethodDelete,
		Path:      path,
		Procedure: procedure,
		Params:    params,
		Shape:     ShapeMessage,
		Message:   noun + " deleted successfully!",
	}
}

func listed(path, procedure string, params ...Param) Operation {
	return Operation{
		Method:    fiber.MethodGet,
		Path:      path,
		Procedure: procedure,
		Params:    params,
		Shape:     ShapeRows,
	}
}

// withAliases returns op also served at the given paths. The aliases are the
// doubled-prefix paths older clients call, e.g. PUT /api/exercises/exercises/:id.
func withAliases(op Operation, paths ...string) Operation {
	op.Aliases = append(op.Aliases, paths...)
	return op
}

// Resources is the complete API surface. Parameter order is the positional order
// of each procedure's signature and must not be changed independently of the
// database.
var Resources = []Resource{
	{
		Name: "login",
		Operations: []Operation{
			{
				Method:        fiber.MethodPost,
				Path:          "/",
				Procedure:     "Login",
				Params:        []Param{BodyField("pUsername")},
				Shape:         ShapeLogin,
				PasswordField: "pPassword",
			},
		},
	},
	{
		Name: "users",
		Operations: []Operation{
			{
				Method:    fiber.MethodPost,
				Path:      "/",
				Procedure: "CreateUser",
				Params: []Param{
					BodyField("firstname"), BodyField("lastname"), BodyField("phone"),
					BodyField("username"), BodyField("email"), PasswordField("password"),
				},
				Shape:   ShapeMessage,
				Status:  fiber.StatusCreated,
				Message: "User created successfully",
			},
		},
	},
	{
		Name: "skills",
		Operations: []Operation{
			listed("/", "GetSkills", QueryFilter("id")),
		},
	},
	{
		Name: "surgeries",
		Operations: []Operation{
			listed("/", "GetSurgeries", QueryFilter("id")),
		},
	},
	{
		Name: "classes",
		Operations: []Operation{
			created("CreateClass", "Class", BodyField("Name"), BodyField("Description")),
			listed("/:Classes?", "GetClasses", Filter("Classes")),
			updated("/:id", "UpdateClass", "Class", PathParam("id"), BodyField("Name"), BodyField("Description")),
			deleted("/:id", "DeleteClass", "Class", PathParam("id")),
		},
	},
	{
		Name: "classexercises",
		Operations: []Operation{
			withAliases(
				created("CreateClassExercise", "ClassExercise", BodyField("ExerciseID"), BodyField("ClassID")),
				"/classexercises"),
			listed("/", "GetClassExercises", QueryFilter("Exercises"), QueryFilter("Classes")),
			withAliases(
				updated("/:oldExerciseID/:oldClassID", "UpdateClassExercises", "ClassExercises",
					PathParam("oldExerciseID"), PathParam("oldClassID"),
					BodyField("newExerciseID"), BodyField("newClassID")),
				"/classexercises/:oldExerciseID/:oldClassID"),
			withAliases(
				deleted("/:exerciseID/:classID", "DeleteClassExercise", "ClassExercise",
					PathParam("exerciseID"), PathParam("classID")),
				"/classexercise/:exerciseID/:classID"),
		},
	},
	{
		Name: "exercises",
		Operations: []Operation{
			withAliases(created("CreateExercise", "Exercise", BodyField("Name")), "/exercises"),
			listed("/:Exercises?", "GetExercises", Filter("Exercises")),
			withAliases(
				updated("/:id", "UpdateExercise", "Exercise", PathParam("id"), BodyField("Name")),
				"/exercises/:id"),
			withAliases(
				deleted("/:id", "DeleteExercise", "Exercise", PathParam("id")),
				"/exercise/:id"),
		},
	},
	{
		Name: "instructors",
		Operations: []Operation{
			created("CreateInstructor", "Instructor",
				BodyField("Type"), BodyField("FirstName"), BodyField("LastName"),
				BodyField("Salary"), BodyField("Hours"), BodyField("Rate")),
			listed("/:Instructors?", "GetInstructors", Filter("Instructors")),
			withAliases(
				updated("/:id", "UpdateInstructor", "Instructor",
					PathParam("id"), BodyField("Type"), BodyField("FirstName"), BodyField("LastName")),
				"/instructors/:id"),
			deleted("/:id", "DeleteInstructor", "Instructor", PathParam("id")),
		},
	},
	{
		Name: "members",
		Operations: []Operation{
			created("CreateMember", "Member", memberFields()...),
			listed("/:Members?", "GetMembers", Filter("Members")),
			updated("/:id", "UpdateMember", "Member", append([]Param{PathParam("id")}, memberFields()...)...),
			deleted("/:Member", "DeleteMember", "Member", IntPathParam("Member", "Invalid member ID")),
		},
	},
	{
		Name: "memberships",
		Operations: []Operation{
			listed("/:Memberships?", "GetMemberships", Filter("Memberships")),
		},
	},
	{
		Name: "payroll",
		Operations: []Operation{
			listed("/:Wages?", "GetWages", Filter("Wages")),
		},
	},
	{
		Name: "registration",
		Operations: []Operation{
			created("CreateRegistration", "Registration", BodyField("MemberID"), BodyField("ScheduleID")),
			listed("/:IDs?/:Members?/:Schedule?", "GetRegistration",
				Filter("IDs"), Filter("Members"), Filter("Schedule")),
			withAliases(
				updated("/:id", "UpdateRegistration", "Registration",
					PathParam("id"), BodyField("MemberID"), BodyField("ScheduleID"), BodyField("Registered")),
				"/registration/:id"),
			deleted("/:id", "DeleteRegistration", "Registration", PathParam("id")),
		},
	},
	{
		Name: "rooms",
		Operations: []Operation{
			created("CreateRoom", "Room", BodyField("pNumber"), BodyField("pBuilding")),
			listed("/:Rooms?", "GetRooms", Filter("Rooms")),
			updated("/:id", "UpdateRoom", "Room", PathParam("id"), BodyField("Number"), BodyField("Building")),
			deleted("/:id", "DeleteRoom", "Room", PathParam("id")),
		},
	},
	{
		Name: "schedule",
		Operations: []Operation{
			created("CreateSchedule", "Schedule", scheduleFields()...),
			listed("/:IDs?/:Classes?/:Instructors?/:Rooms?", "GetSchedule",
				Filter("IDs"), Filter("Classes"), Filter("Instructors"), Filter("Rooms")),
			withAliases(
				updated("/:id", "UpdateSchedule", "Schedule", append([]Param{PathParam("id")}, scheduleFields()...)...),
				"/schedule/:id"),
			withAliases(
				deleted("/:id", "DeleteSchedule", "Schedule", PathParam("id")),
				"/schedule/:id"),
		},
	},
}

func memberFields() []Param {
	return []Param{
		BodyField("Type"), BodyField("FirstName"), BodyField("LastName"), BodyField("Address"),
		BodyField("City"), BodyField("State"), BodyField("Zipcode"), BodyField("Country"),
	}
}

func scheduleFields() []Param {
	return []Param{
		BodyField("ClassID"), BodyField("InstructorID"), BodyField("RoomID"),
		BodyField("StartTime"), BodyField("Duration"),
	}
}

// Register mounts every resource under router (normally the /api group).
func Register(router fiber.Router, gw *Gateway) {
	for _, res := range Resources {
		group := router.Group("/" + res.Name)
		for _, op := range res.Operations {
			h := gw.Handler(op)
			group.Add(op.Method, op.Path, h)
			for _, alias := range op.Aliases {
				group.Add(op.Method, alias, h)
			}
		}
	}
}
