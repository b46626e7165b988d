package main

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en"{{.RootAttrs}}>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Title}} · themes</title>
{{.Head}}
<style>
  :root { font-family: system-ui, sans-serif; }
  html.dark { background: #111; color: #eee; }
  html.light { background: #fafafa; color: #222; }
  body { max-width: 40rem; margin: 3rem auto; }
  a, button { color: inherit; }
  main, nav { transition: background-color .3s, color .3s; }
</style>
</head>
<body data-ws="{{.WSPath}}">
<nav>{{range .Links}}<a href="{{.Href}}">{{.Label}}</a> {{end}}</nav>
<main>
  <h1>{{.Title}}</h1>
  <p>Theme: <strong data-current-theme>{{.Theme}}</strong>
     (<span data-defined-by>{{.DefinedBy}}</span>)</p>
  <p>
    <button type="button" data-set-theme="light">Light</button>
    <button type="button" data-set-theme="dark">Dark</button>
    <button type="button" data-set-theme="">System</button>
  </p>
  <p>Open this page in another tab: both stay in sync.</p>
</main>
<script nonce="{{.Nonce}}">{{.Script}}</script>
</body>
</html>
`))

// clientScript connects the page to its tab store. The server owns the
// state; the page reports the OS preference, sends selections, posts the
// persist action when asked and mirrors state and style frames.
const clientScript = `(() => {
  const root = document.documentElement;
  const mq = window.matchMedia('(prefers-color-scheme: light)');
  const scheme = location.protocol === 'https:' ? 'wss:' : 'ws:';
  const ws = new WebSocket(scheme + '//' + location.host + document.body.dataset.ws);
  const styles = [];

  const send = (frame) => {
    if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(frame));
  };

  const apply = (theme, definedBy) => {
    root.classList.remove('light', 'dark');
    if (theme) root.classList.add(theme);
    const meta = document.querySelector('meta[name=color-scheme]');
    if (meta) meta.content = theme === 'light' ? 'light dark' : 'dark light';
    document.querySelectorAll('[data-current-theme]').forEach((el) => { el.textContent = theme || 'unset'; });
    document.querySelectorAll('[data-defined-by]').forEach((el) => { el.textContent = definedBy || 'SYSTEM'; });
  };

  ws.addEventListener('open', () => send({ type: 'hello', matchesLight: mq.matches }));
  mq.addEventListener('change', (e) => send({ type: 'media', matchesLight: e.matches }));

  ws.addEventListener('message', (ev) => {
    const f = JSON.parse(ev.data);
    switch (f.type) {
      case 'state':
        apply(f.theme, f.definedBy);
        break;
      case 'persist':
        fetch(f.url, {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify(f.body),
          credentials: 'same-origin',
        }).catch(() => {});
        break;
      case 'style':
        if (f.active) {
          const el = document.createElement('style');
          el.appendChild(document.createTextNode(f.css));
          document.head.appendChild(el);
          styles.push(el);
          window.getComputedStyle(document.body);
        } else {
          const el = styles.shift();
          if (el) el.remove();
        }
        break;
      case 'error':
        console.warn('themes:', f.message);
        break;
    }
  });

  document.querySelectorAll('[data-set-theme]').forEach((btn) => {
    btn.addEventListener('click', () => {
      const v = btn.dataset.setTheme;
      send({ type: 'set', theme: v === '' ? null : v });
    });
  });
})();`
