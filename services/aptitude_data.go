package services

import "github.com/advisorly/api/model"

// Static aptitude test configuration. These tables are immutable and loaded
// once with the process; services must never modify them.

// AptitudeQuestion is one fixed multiple-choice question of the aptitude
// test. CategoryMap maps an option index to the interest categories that
// option reinforces.
type AptitudeQuestion struct {
	Prompt      string
	Options     []string
	Weight      int
	CategoryMap map[int][]string
}

// InterestCategory is one official interest category. RequiredSubjects are
// matched as case-insensitive substrings against the student's
// subject-comfort-level map to compute the comfort bonus.
type InterestCategory struct {
	Name             string
	RequiredSubjects []string
}

// Official interest category names
const (
	CategoryEngineering   = "Engineering"
	CategoryComputers     = "Computers and Data Science"
	CategoryBusiness      = "Business and Economics"
	CategoryLifeSciences  = "Life Sciences and Medicine"
	CategoryArts          = "Arts and Design"
	CategorySocialScience = "Social Sciences and Humanities"
	CategoryLaw           = "Law and Public Policy"
	CategoryEducation     = "Education and Social Impact"
	CategoryMedia         = "Media and Communication"
	CategoryEnvironment   = "Environmental and Earth Sciences"
)

// InterestCategories lists every official category in declared order. The
// declared order is also the tie-break order when ranking scores.
var InterestCategories = []InterestCategory{
	{Name: CategoryEngineering, RequiredSubjects: []string{"math", "physics"}},
	{Name: CategoryComputers, RequiredSubjects: []string{"math", "computer"}},
	{Name: CategoryBusiness, RequiredSubjects: []string{"economics", "math"}},
	{Name: CategoryLifeSciences, RequiredSubjects: []string{"biology", "chemistry"}},
	{Name: CategoryArts, RequiredSubjects: []string{"art"}},
	{Name: CategorySocialScience, RequiredSubjects: []string{"history", "literature"}},
	{Name: CategoryLaw, RequiredSubjects: []string{"history", "civics"}},
	{Name: CategoryEducation, RequiredSubjects: nil},
	{Name: CategoryMedia, RequiredSubjects: []string{"english", "literature"}},
	{Name: CategoryEnvironment, RequiredSubjects: []string{"biology", "geography"}},
}

// AptitudeQuestions is the fixed questionnaire. Questions 1 and 8 carry
// double weight; the rest weigh 1.
var AptitudeQuestions = []AptitudeQuestion{
	{
		Prompt: "Which type of tasks do you enjoy the most?",
		Options: []string{
			"Technical/Analytical tasks",
			"Creative/Expressive tasks",
			"Helping/Teaching others",
			"Organizing/Leading people",
		},
		Weight: 2,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering, CategoryComputers},
			1: {CategoryArts, CategoryMedia},
			2: {CategoryEducation, CategoryLifeSciences},
			3: {CategoryBusiness, CategoryLaw},
		},
	},
	{
		Prompt: "How do you prefer to solve problems?",
		Options: []string{
			"Breaking them into logical steps",
			"Brainstorming original ideas",
			"Talking them through with people",
			"Researching what experts say",
		},
		Weight: 1,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering, CategoryComputers},
			1: {CategoryArts},
			2: {CategorySocialScience, CategoryEducation},
			3: {CategoryLifeSciences, CategoryLaw},
		},
	},
	{
		Prompt: "Which school activity sounds most appealing?",
		Options: []string{
			"Robotics or coding club",
			"Theater, band, or studio art",
			"Debate or model government",
			"Volunteering or peer tutoring",
		},
		Weight: 1,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering, CategoryComputers},
			1: {CategoryArts, CategoryMedia},
			2: {CategoryLaw, CategorySocialScience},
			3: {CategoryEducation},
		},
	},
	{
		Prompt: "What kind of news stories grab your attention?",
		Options: []string{
			"New technology and gadgets",
			"Business and markets",
			"Health and scientific discoveries",
			"Culture, film, and design",
		},
		Weight: 1,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering, CategoryComputers},
			1: {CategoryBusiness},
			2: {CategoryLifeSciences, CategoryEnvironment},
			3: {CategoryArts, CategoryMedia},
		},
	},
	{
		Prompt: "In a group project, which role do you naturally take?",
		Options: []string{
			"Building the prototype or model",
			"Designing the visuals and story",
			"Coordinating the team and deadlines",
			"Checking facts and writing the report",
		},
		Weight: 1,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering},
			1: {CategoryArts, CategoryMedia},
			2: {CategoryBusiness},
			3: {CategorySocialScience, CategoryLaw},
		},
	},
	{
		Prompt: "Which environment would you rather work in?",
		Options: []string{
			"A lab or engineering workshop",
			"A hospital or clinic",
			"A courtroom or government office",
			"Outdoors doing field research",
		},
		Weight: 1,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering, CategoryComputers},
			1: {CategoryLifeSciences},
			2: {CategoryLaw},
			3: {CategoryEnvironment},
		},
	},
	{
		Prompt: "What do people usually ask for your help with?",
		Options: []string{
			"Fixing devices or spreadsheets",
			"Making things look good",
			"Explaining difficult concepts",
			"Settling disagreements fairly",
		},
		Weight: 1,
		CategoryMap: map[int][]string{
			0: {CategoryComputers, CategoryEngineering},
			1: {CategoryArts},
			2: {CategoryEducation, CategorySocialScience},
			3: {CategoryLaw},
		},
	},
	{
		Prompt: "Ten years from now, what would make you proudest?",
		Options: []string{
			"Inventing or building something people use every day",
			"Creating work that moves an audience",
			"Improving lives through medicine or research",
			"Running a successful organization",
		},
		Weight: 2,
		CategoryMap: map[int][]string{
			0: {CategoryEngineering, CategoryComputers},
			1: {CategoryArts, CategoryMedia},
			2: {CategoryLifeSciences, CategoryEnvironment},
			3: {CategoryBusiness, CategoryLaw},
		},
	},
}

// CareersByCategory maps each official category to its candidate careers
var CareersByCategory = map[string][]model.Career{
	CategoryEngineering: {
		{Title: "Mechanical Engineer", Emoji: "⚙️", Major: "Mechanical Engineering", Category: CategoryEngineering},
		{Title: "Civil Engineer", Emoji: "🏗️", Major: "Civil Engineering", Category: CategoryEngineering},
		{Title: "Electrical Engineer", Emoji: "🔌", Major: "Electrical Engineering", Category: CategoryEngineering},
		{Title: "Aerospace Engineer", Emoji: "🚀", Major: "Aerospace Engineering", Category: CategoryEngineering},
		{Title: "Robotics Engineer", Emoji: "🤖", Major: "Mechatronics", Category: CategoryEngineering},
	},
	CategoryComputers: {
		{Title: "Software Engineer", Emoji: "💻", Major: "Computer Science", Category: CategoryComputers},
		{Title: "Data Scientist", Emoji: "📊", Major: "Data Science", Category: CategoryComputers},
		{Title: "Machine Learning Engineer", Emoji: "🧠", Major: "Computer Science", Category: CategoryComputers},
		{Title: "Cybersecurity Analyst", Emoji: "🔐", Major: "Information Security", Category: CategoryComputers},
		{Title: "Game Developer", Emoji: "🎮", Major: "Computer Science", Category: CategoryComputers},
	},
	CategoryBusiness: {
		{Title: "Management Consultant", Emoji: "📈", Major: "Business Administration", Category: CategoryBusiness},
		{Title: "Financial Analyst", Emoji: "💰", Major: "Finance", Category: CategoryBusiness},
		{Title: "Entrepreneur", Emoji: "🚀", Major: "Entrepreneurship", Category: CategoryBusiness},
		{Title: "Economist", Emoji: "📉", Major: "Economics", Category: CategoryBusiness},
		{Title: "Product Manager", Emoji: "🗂️", Major: "Business Administration", Category: CategoryBusiness},
	},
	CategoryLifeSciences: {
		{Title: "Physician", Emoji: "🩺", Major: "Pre-Medicine", Category: CategoryLifeSciences},
		{Title: "Biomedical Researcher", Emoji: "🔬", Major: "Biomedical Science", Category: CategoryLifeSciences},
		{Title: "Pharmacist", Emoji: "💊", Major: "Pharmacy", Category: CategoryLifeSciences},
		{Title: "Veterinarian", Emoji: "🐾", Major: "Veterinary Medicine", Category: CategoryLifeSciences},
		{Title: "Nurse Practitioner", Emoji: "🏥", Major: "Nursing", Category: CategoryLifeSciences},
	},
	CategoryArts: {
		{Title: "Graphic Designer", Emoji: "🎨", Major: "Graphic Design", Category: CategoryArts},
		{Title: "Architect", Emoji: "🏛️", Major: "Architecture", Category: CategoryArts},
		{Title: "Industrial Designer", Emoji: "🪑", Major: "Industrial Design", Category: CategoryArts},
		{Title: "Animator", Emoji: "🎬", Major: "Animation", Category: CategoryArts},
		{Title: "Fashion Designer", Emoji: "👗", Major: "Fashion Design", Category: CategoryArts},
	},
	CategorySocialScience: {
		{Title: "Psychologist", Emoji: "🧩", Major: "Psychology", Category: CategorySocialScience},
		{Title: "Historian", Emoji: "📜", Major: "History", Category: CategorySocialScience},
		{Title: "Sociologist", Emoji: "🏙️", Major: "Sociology", Category: CategorySocialScience},
		{Title: "Anthropologist", Emoji: "🗿", Major: "Anthropology", Category: CategorySocialScience},
	},
	CategoryLaw: {
		{Title: "Lawyer", Emoji: "⚖️", Major: "Pre-Law", Category: CategoryLaw},
		{Title: "Policy Analyst", Emoji: "🏛️", Major: "Public Policy", Category: CategoryLaw},
		{Title: "Diplomat", Emoji: "🌍", Major: "International Relations", Category: CategoryLaw},
		{Title: "Judge", Emoji: "🔨", Major: "Law", Category: CategoryLaw},
	},
	CategoryEducation: {
		{Title: "Teacher", Emoji: "🍎", Major: "Education", Category: CategoryEducation},
		{Title: "School Counselor", Emoji: "🧭", Major: "Counseling Psychology", Category: CategoryEducation},
		{Title: "Nonprofit Director", Emoji: "🤝", Major: "Public Administration", Category: CategoryEducation},
		{Title: "Social Worker", Emoji: "🏠", Major: "Social Work", Category: CategoryEducation},
	},
	CategoryMedia: {
		{Title: "Journalist", Emoji: "📰", Major: "Journalism", Category: CategoryMedia},
		{Title: "Film Director", Emoji: "🎥", Major: "Film Studies", Category: CategoryMedia},
		{Title: "Public Relations Specialist", Emoji: "📣", Major: "Communications", Category: CategoryMedia},
		{Title: "Content Producer", Emoji: "🎙️", Major: "Media Production", Category: CategoryMedia},
	},
	CategoryEnvironment: {
		{Title: "Environmental Scientist", Emoji: "🌱", Major: "Environmental Science", Category: CategoryEnvironment},
		{Title: "Marine Biologist", Emoji: "🐠", Major: "Marine Biology", Category: CategoryEnvironment},
		{Title: "Geologist", Emoji: "⛰️", Major: "Geology", Category: CategoryEnvironment},
		{Title: "Conservation Officer", Emoji: "🦅", Major: "Wildlife Conservation", Category: CategoryEnvironment},
	},
}
