// internal/benchmark/cases.go
package benchmark

// Case is one benchmark scenario: a prompt and a subject profile paired with
// the domain's reference confidence used to measure calibration error.
type Case struct {
	ID                 string
	Domain             string
	Subject            string
	Prompt             string
	ProfileJSON        string
	ExpectedConfidence float64
}

// Cases returns the six embedded benchmark scenarios.
func Cases() []Case {
	return []Case{
		{
			ID:      "test_001",
			Domain:  "education",
			Subject: "Alex Lee",
			Prompt:  "Create a personalized machine learning learning path for someone with weak foundation but strong learning ability",
			ProfileJSON: `{
				"name": "Alex Lee",
				"age": 24,
				"major": "Computer Science",
				"current_skills": ["Python basics", "Data structures"],
				"goal": "Become a machine learning engineer",
				"learning_style": "Practice-oriented"
			}`,
			ExpectedConfidence: 0.75,
		},
		{
			ID:      "test_002",
			Domain:  "career",
			Subject: "Jordan Smith",
			Prompt:  "Analyze the feasibility and path for a software engineer transitioning to technical management",
			ProfileJSON: `{
				"name": "Jordan Smith",
				"age": 32,
				"years_experience": 8,
				"current_position": "Senior Software Engineer",
				"management_experience": "Team Lead for 2 years",
				"goal": "Technical Director"
			}`,
			ExpectedConfidence: 0.80,
		},
		{
			ID:      "test_003",
			Domain:  "lifestyle",
			Subject: "Sam Chen",
			Prompt:  "Develop a comprehensive health improvement plan for sedentary programmers",
			ProfileJSON: `{
				"name": "Sam Chen",
				"age": 29,
				"occupation": "Software Developer",
				"health_status": {
					"BMI": 26.5,
					"exercise_habits": "Rarely exercises",
					"sleep_quality": "Frequent late nights"
				},
				"goal": "Improve overall health"
			}`,
			ExpectedConfidence: 0.65,
		},
		{
			ID:      "test_004",
			Domain:  "business",
			Subject: "Taylor Wong",
			Prompt:  "Evaluate the business plan feasibility for tech entrepreneurs entering the SaaS market",
			ProfileJSON: `{
				"name": "Taylor Wong",
				"age": 35,
				"background": "Former big tech CTO",
				"product_idea": "Project management SaaS for SMEs",
				"risk_tolerance": "Medium"
			}`,
			ExpectedConfidence: 0.55,
		},
		{
			ID:      "test_005",
			Domain:  "research",
			Subject: "Riley Park",
			Prompt:  "Create research direction selection and publication strategy for computer vision PhD students",
			ProfileJSON: `{
				"name": "Riley Park",
				"age": 26,
				"education": "Master's student",
				"research_interests": ["Object detection", "Image segmentation"],
				"goal": "Top-tier conference publications"
			}`,
			ExpectedConfidence: 0.85,
		},
		{
			ID:      "test_006",
			Domain:  "social",
			Subject: "Casey Kim",
			Prompt:  "Develop workplace social skills improvement plan for introverted tech professionals",
			ProfileJSON: `{
				"name": "Casey Kim",
				"age": 27,
				"personality": "Introverted, not good at expression",
				"position": "Backend Developer",
				"goal": "Enhance workplace influence"
			}`,
			ExpectedConfidence: 0.70,
		},
	}
}
