package rate

const (
	issueKeyPrefix   = "rl:otp:issue:"
	issueIPKeyPrefix = "rl:otp:issue-ip:"
	verifyKeyPrefix  = "rl:otp:verify:"
)

func issueKey(mobile string) string {
	return issueKeyPrefix + mobile
}

func issueIPKey(ip string) string {
	return issueIPKeyPrefix + ip
}

func verifyKey(mobile string) string {
	return verifyKeyPrefix + mobile
}
