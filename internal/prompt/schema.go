package prompt

// Schema describes the log_data table. Both the dataset preparation and the
// serving path build prompts from this constant and nothing else.
const Schema = "Database Schema:\n" +
	"Table: log_data\n" +
	"log_level (VARCHAR): The level of the log, e.g., 'INFO', 'ERROR', 'CRITICAL', 'WARNING'.\n" +
	"timestamp (TIMESTAMP): The date and time the log entry was generated.\n" +
	"event_id (INTEGER): A unique identifier for the event associated with the log.\n" +
	"user_id (INTEGER): The ID of the user associated with the log entry.\n" +
	"session_id (VARCHAR): The session identifier for the user's session.\n" +
	"source_ip_address (VARCHAR): The IP address from which the request or event originated.\n" +
	"destination_ip_address (VARCHAR): The IP address to which the request or event was directed.\n" +
	"host_name (VARCHAR): The name of the host where the event occurred.\n" +
	"application_name (VARCHAR): The name of the application responsible for generating the log.\n" +
	"process_id (INTEGER): The ID of the process that generated the log entry.\n" +
	"thread_id (INTEGER): The ID of the thread that generated the log entry.\n" +
	"file_name (VARCHAR): The name of the file associated with the log event.\n" +
	"line_number (INTEGER): The line number in the file where the event was recorded.\n" +
	"method_name (VARCHAR): The name of the method or function where the event occurred.\n" +
	"event_type (VARCHAR): The type of event being logged, e.g., 'ERROR', 'INFO'.\n" +
	"action_performed (VARCHAR): The specific action or event performed.\n" +
	"status_code (INTEGER): The HTTP status code associated with the event, if applicable.\n" +
	"response_time (INTEGER): The time taken to respond to a request, in milliseconds.\n" +
	"resource_accessed (VARCHAR): The resource accessed during the event, e.g., a URL.\n" +
	"bytes_sent (INTEGER): The number of bytes sent during the transaction.\n" +
	"bytes_received (INTEGER): The number of bytes received during the transaction.\n" +
	"error_message (TEXT): The error message associated with the log entry, if any.\n" +
	"exception_stack_trace (TEXT): The stack trace of any exception associated with the event.\n" +
	"user_agent (VARCHAR): The user agent string of the client responsible for the event.\n" +
	"operating_system (VARCHAR): The operating system of the device generating the log.\n" +
	"Notes:\n" +
	"- Use 'WHERE timestamp >= NOW() - INTERVAL x' for filtering time ranges.\n" +
	"- Use 'GROUP BY' for grouping data and 'ORDER BY' for sorting.\n" +
	"- Use functions like COUNT(), MAX(), MIN(), AVG() for aggregations.\n" +
	"- Use SQL keywords such as DISTINCT, ILIKE, and DATE_TRUNC for specific use cases.\n\n" +
	"\n"
